package ladderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// evaluate derives level positions from current points and applies the challenge rules.
func (s *LadderService) evaluate(ctx context.Context, db bun.IDB, challenger, challenged *ladderdb.Player) (EligibilityView, error) {
	cohort, err := s.repo.ListActiveAtLevel(ctx, db, challenger.Level)
	if err != nil {
		return EligibilityView{}, err
	}
	positions := ladderdomain.Positions(ladderdomain.LevelCategory{Level: challenger.Level}, standingsOf(cohort))

	view := EligibilityView{
		ChallengerID:         challenger.ID,
		ChallengedID:         challenged.ID,
		ChallengerPosition:   positions[challenger.ID],
		ActivePlayersAtLevel: len(cohort),
	}
	if challenged.Level == challenger.Level {
		view.ChallengedPosition = positions[challenged.ID]
	}

	view.EligibilityDecision = ladderdomain.CanChallenge(
		ladderdomain.EligibilitySnapshot{
			ID:                   challenger.ID,
			IsActive:             challenger.IsActive,
			Level:                challenger.Level,
			RankingByLevel:       view.ChallengerPosition,
			ActiveChallengeCount: challenger.ActiveChallenges,
		},
		ladderdomain.EligibilitySnapshot{
			ID:                   challenged.ID,
			IsActive:             challenged.IsActive,
			Level:                challenged.Level,
			RankingByLevel:       view.ChallengedPosition,
			ActiveChallengeCount: challenged.ActiveChallenges,
		},
		len(cohort),
	)
	return view, nil
}

// EvaluateChallenge answers whether a challenge would be allowed right now.
func (s *LadderService) EvaluateChallenge(ctx context.Context, challengerID, challengedID uuid.UUID) (*EligibilityView, error) {
	evaluateTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[EligibilityView], error) {
		challenger, err := s.repo.GetPlayer(ctx, db, challengerID)
		if err != nil {
			return notFoundOr[EligibilityView](err, "challenger")
		}
		challenged, err := s.repo.GetPlayer(ctx, db, challengedID)
		if err != nil {
			return notFoundOr[EligibilityView](err, "challenged player")
		}
		view, err := s.evaluate(ctx, db, challenger, challenged)
		if err != nil {
			return LadderOperationResult[EligibilityView]{}, err
		}
		return success(view)
	}

	return unwrap(withTelemetry(s, ctx, "EvaluateChallenge", challengerID, func(ctx context.Context) (LadderOperationResult[EligibilityView], error) {
		return runInTx(s, ctx, evaluateTx)
	}))
}

// CreateChallenge opens a challenge after re-checking eligibility under row locks.
func (s *LadderService) CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*ChallengeView, error) {
	box := &outbox{}

	createTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[ChallengeView], error) {
		if err := req.validate(); err != nil {
			return failure[ChallengeView](err)
		}
		now := s.clock.Now()
		proposed, err := parseProposedDate(req.ProposedDate, now)
		if err != nil {
			return failure[ChallengeView](err)
		}

		players, err := s.repo.GetPlayersForUpdate(ctx, db, req.ChallengerID, req.ChallengedID)
		if err != nil {
			return notFoundOr[ChallengeView](err, "player")
		}
		challenger, challenged := players[req.ChallengerID], players[req.ChallengedID]

		view, err := s.evaluate(ctx, db, challenger, challenged)
		if err != nil {
			return LadderOperationResult[ChallengeView]{}, err
		}
		if !view.Allowed {
			return failure[ChallengeView](&EligibilityError{Decision: view.EligibilityDecision})
		}

		existing, err := s.repo.FindLiveChallengeBetween(ctx, db, challenger.ID, challenged.ID)
		switch {
		case err == nil:
			return failure[ChallengeView](invalid("challenged_id", "a challenge between these players is already %s", existing.Status))
		case !errors.Is(err, ladderdb.ErrNotFound):
			return LadderOperationResult[ChallengeView]{}, err
		}

		challenge := &ladderdb.Challenge{
			ID:                uuid.New(),
			ChallengerID:      challenger.ID,
			ChallengedID:      challenged.ID,
			Message:           req.Message,
			ProposedDate:      proposed,
			ChallengerRanking: challenger.RankingGeneral,
			ChallengedRanking: challenged.RankingGeneral,
			ChallengerPoints:  challenger.Points,
			ChallengedPoints:  challenged.Points,
			UpdatedAt:         now,
		}
		challenge.SetState(ladderdomain.NewChallengeState(now))

		if err := s.repo.CreateChallenge(ctx, db, challenge); err != nil {
			return LadderOperationResult[ChallengeView]{}, err
		}
		if err := s.repo.AdjustActiveChallenges(ctx, db, challenger.ID, 1); err != nil {
			return LadderOperationResult[ChallengeView]{}, err
		}

		box.add(ladderdomain.Notification{
			Type:        ladderdomain.NotifyChallengeReceived,
			RecipientID: challenged.ID,
			SenderID:    challenger.ID,
			Title:       "New challenge received",
			Message:     fmt.Sprintf("%s challenged you to a match", challenger.Name),
			ReferenceID: challenge.ID,
		})
		return success(toChallengeView(challenge))
	}

	result, err := withTelemetry(s, ctx, "CreateChallenge", req.ChallengerID, func(ctx context.Context) (LadderOperationResult[ChallengeView], error) {
		return runInTx(s, ctx, createTx)
	})
	return finish(s, ctx, box, result, err)
}

// RespondToChallenge accepts or declines a pending challenge. Only the
// challenged player may respond, and only once.
func (s *LadderService) RespondToChallenge(ctx context.Context, challengeID, responderID uuid.UUID, action RespondAction) (*RespondResult, error) {
	box := &outbox{}

	respondTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[RespondResult], error) {
		if err := parseRespondAction(action); err != nil {
			return failure[RespondResult](err)
		}

		challenge, err := s.repo.GetChallengeForUpdate(ctx, db, challengeID)
		if err != nil {
			return notFoundOr[RespondResult](err, "challenge")
		}
		if challenge.ChallengedID != responderID {
			return failure[RespondResult](forbidden("only the challenged player can respond to this challenge"))
		}
		if challenge.Status != ladderdomain.ChallengePending {
			return failure[RespondResult](conflict("challenge is already %s", challenge.Status))
		}

		now := s.clock.Now()
		current := challenge.State()
		var next ladderdomain.ChallengeState
		if action == ActionAccept {
			next, err = current.Accept(now)
		} else {
			next, err = current.Decline(now)
		}
		if errors.Is(err, ladderdomain.ErrDeadlinePassed) {
			if err := s.expireChallenge(ctx, db, challenge, now, box); err != nil {
				return LadderOperationResult[RespondResult]{}, err
			}
			return failureKeepingWrites[RespondResult](invalid("challenge", "the response window for this challenge has closed"))
		}
		if err != nil {
			return failure[RespondResult](conflict("%v", err))
		}

		challenge.SetState(next)
		if err := s.repo.TransitionChallenge(ctx, db, challenge, ladderdomain.ChallengePending); err != nil {
			if errors.Is(err, ladderdb.ErrNoRowsAffected) {
				return failure[RespondResult](conflict("challenge was answered by another request"))
			}
			return LadderOperationResult[RespondResult]{}, err
		}

		result := RespondResult{Challenge: toChallengeView(challenge)}
		if action == ActionAccept {
			box.add(ladderdomain.Notification{
				Type:        ladderdomain.NotifyChallengeAccepted,
				RecipientID: challenge.ChallengerID,
				SenderID:    responderID,
				Title:       "Challenge accepted",
				Message:     "Your challenge was accepted. Arrange the match before the deadline.",
				ReferenceID: challenge.ID,
			})
			return success(result)
		}

		outcome, err := s.recordDecline(ctx, db, challenge, now, box)
		if err != nil {
			return LadderOperationResult[RespondResult]{}, err
		}
		result.Decline = outcome
		return success(result)
	}

	result, err := withTelemetry(s, ctx, "RespondToChallenge", challengeID, func(ctx context.Context) (LadderOperationResult[RespondResult], error) {
		return runInTx(s, ctx, respondTx)
	})
	return finish(s, ctx, box, result, err)
}

// recordDecline applies the monthly decline ledger to both players and
// releases the challenger's slot.
func (s *LadderService) recordDecline(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge, now time.Time, box *outbox) (*ladderdomain.DeclineOutcome, error) {
	players, err := s.repo.GetPlayersForUpdate(ctx, db, challenge.ChallengerID, challenge.ChallengedID)
	if err != nil {
		return nil, err
	}
	challenger, recuser := players[challenge.ChallengerID], players[challenge.ChallengedID]

	outcome := ladderdomain.ApplyDeclinePenalty(recuser.DeclineCounter(), recuser.Points, challenger.Points, now)
	recuserDelta := outcome.RecuserPoints - recuser.Points
	challengerDelta := outcome.ChallengerPoints - challenger.Points

	recuser.SetDeclineCounter(outcome.Counter)
	recuser.Points = outcome.RecuserPoints
	challenger.Points = outcome.ChallengerPoints
	challenger.ActiveChallenges = max(0, challenger.ActiveChallenges-1)

	if err := s.repo.SavePlayerState(ctx, db, recuser); err != nil {
		return nil, err
	}
	if err := s.repo.SavePlayerState(ctx, db, challenger); err != nil {
		return nil, err
	}

	box.add(ladderdomain.Notification{
		Type:        ladderdomain.NotifyChallengeDeclined,
		RecipientID: challenger.ID,
		SenderID:    recuser.ID,
		Title:       "Challenge declined",
		Message:     fmt.Sprintf("%s declined your challenge", recuser.Name),
		ReferenceID: challenge.ID,
	})

	if !outcome.PenaltyApplied {
		return &outcome, nil
	}

	err = s.repo.AppendPointHistory(ctx, db,
		&ladderdb.PointHistory{PlayerID: recuser.ID, Delta: recuserDelta, Balance: recuser.Points, Reason: ladderdb.ReasonDeclinePenalty, ReferenceID: challenge.ID, CreatedAt: now},
		&ladderdb.PointHistory{PlayerID: challenger.ID, Delta: challengerDelta, Balance: challenger.Points, Reason: ladderdb.ReasonDeclineCompensation, ReferenceID: challenge.ID, CreatedAt: now},
	)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := s.rerank(ctx, db, all); err != nil {
		return nil, err
	}

	s.metrics.RecordPointsTransferred(ctx, string(ladderdb.ReasonDeclinePenalty), outcome.PointsTransferred)
	s.logger.InfoContext(ctx, "Decline penalty applied",
		attr.UUID("challenge_id", challenge.ID),
		attr.UUID("recuser_id", recuser.ID),
		attr.Int("declines_this_month", outcome.DeclinesThisMonth),
		attr.ExtractCorrelationID(ctx),
	)

	box.add(
		ladderdomain.Notification{
			Type:        ladderdomain.NotifyPointsChanged,
			RecipientID: recuser.ID,
			Title:       "Decline penalty",
			Message:     outcome.Message,
			ReferenceID: challenge.ID,
			Data:        map[string]any{"delta": recuserDelta, "points": recuser.Points},
		},
		ladderdomain.Notification{
			Type:        ladderdomain.NotifyPointsChanged,
			RecipientID: challenger.ID,
			Title:       "Decline compensation",
			Message:     fmt.Sprintf("You received %d points because your challenge was declined", challengerDelta),
			ReferenceID: challenge.ID,
			Data:        map[string]any{"delta": challengerDelta, "points": challenger.Points},
		},
	)
	return &outcome, nil
}

// expireChallenge closes a pending challenge whose response window is over.
func (s *LadderService) expireChallenge(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge, now time.Time, box *outbox) error {
	next, err := challenge.State().Expire(now)
	if err != nil {
		return err
	}
	challenge.SetState(next)
	if err := s.repo.TransitionChallenge(ctx, db, challenge, ladderdomain.ChallengePending); err != nil {
		return err
	}
	if err := s.repo.AdjustActiveChallenges(ctx, db, challenge.ChallengerID, -1); err != nil {
		return err
	}
	box.add(ladderdomain.Notification{
		Type:        ladderdomain.NotifyChallengeExpired,
		RecipientID: challenge.ChallengerID,
		Title:       "Challenge expired",
		Message:     "Your challenge expired without a response",
		ReferenceID: challenge.ID,
	})
	return nil
}

func (s *LadderService) ListChallenges(ctx context.Context, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]ChallengeView, error) {
	challenges, err := s.repo.ListChallengesForPlayer(ctx, nil, playerID, statuses)
	if err != nil {
		return nil, err
	}
	out := make([]ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		out = append(out, toChallengeView(c))
	}
	return out, nil
}

// notFoundOr maps a repository ErrNotFound to a business failure and
// passes anything else through as an infrastructure error.
func notFoundOr[S any](err error, what string) (LadderOperationResult[S], error) {
	if errors.Is(err, ladderdb.ErrNotFound) {
		return failure[S](fmt.Errorf("%s: %w", what, ErrNotFound))
	}
	return LadderOperationResult[S]{}, err
}
