package ladderservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	triggerManual = "manual"
	triggerAuto   = "auto"
)

// SubmitMatchResult records the outcome of an accepted challenge. The result
// stays pending until the loser confirms it or the validation window closes.
func (s *LadderService) SubmitMatchResult(ctx context.Context, req SubmitMatchRequest) (*MatchView, error) {
	box := &outbox{}

	submitTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[MatchView], error) {
		if err := req.validate(); err != nil {
			return failure[MatchView](err)
		}

		challenge, err := s.repo.GetChallengeForUpdate(ctx, db, req.ChallengeID)
		if err != nil {
			return notFoundOr[MatchView](err, "challenge")
		}
		if !challenge.Involves(req.ReporterID) {
			return failure[MatchView](forbidden("only the players of this challenge can submit its result"))
		}
		switch challenge.Status {
		case ladderdomain.ChallengeAccepted:
		case ladderdomain.ChallengeAwaitingValidation, ladderdomain.ChallengeCompleted:
			return failure[MatchView](conflict("a result was already submitted for this challenge"))
		default:
			return failure[MatchView](invalid("challenge_id", "challenge is %s; only accepted challenges take results", challenge.Status))
		}

		winnerID, loserID, err := ladderdomain.ResolveOutcome(challenge.ChallengerID, challenge.ChallengedID, req.WinnerID)
		if err != nil {
			return failure[MatchView](invalid("winner_id", "winner must be one of the two players"))
		}

		now := s.clock.Now()
		matchDate := now
		if req.MatchDate != nil {
			matchDate = req.MatchDate.UTC()
			if matchDate.After(now) {
				return failure[MatchView](invalid("match_date", "match date cannot be in the future"))
			}
		}

		match := &ladderdb.Match{
			ID:              uuid.New(),
			ChallengeID:     challenge.ID,
			Player1ID:       challenge.ChallengerID,
			Player2ID:       challenge.ChallengedID,
			WinnerID:        winnerID,
			LoserID:         loserID,
			Score:           req.Score,
			Sets:            req.Sets,
			MatchDate:       matchDate,
			Location:        req.Location,
			DurationMinutes: req.DurationMinutes,
			Notes:           req.Notes,
			ReportedBy:      req.ReporterID,
			Multiplier:      1,
			UpdatedAt:       now,
		}
		match.SetState(ladderdomain.NewMatchState(now))

		if err := s.repo.CreateMatch(ctx, db, match); err != nil {
			if errors.Is(err, ladderdb.ErrDuplicate) {
				return failure[MatchView](conflict("a result was already submitted for this challenge"))
			}
			return LadderOperationResult[MatchView]{}, err
		}

		next, err := challenge.State().FileMatch()
		if err != nil {
			return LadderOperationResult[MatchView]{}, err
		}
		challenge.SetState(next)
		if err := s.repo.TransitionChallenge(ctx, db, challenge, ladderdomain.ChallengeAccepted); err != nil {
			return LadderOperationResult[MatchView]{}, err
		}

		opponent := challenge.ChallengerID
		if opponent == req.ReporterID {
			opponent = challenge.ChallengedID
		}
		box.add(ladderdomain.Notification{
			Type:        ladderdomain.NotifyMatchResultSubmitted,
			RecipientID: opponent,
			SenderID:    req.ReporterID,
			Title:       "Match result submitted",
			Message:     fmt.Sprintf("A result of %s was reported. Confirm it before %s.", match.Score, match.ValidationDeadline.Format(time.RFC1123)),
			ReferenceID: match.ID,
		})
		return success(toMatchView(match))
	}

	result, err := withTelemetry(s, ctx, "SubmitMatchResult", req.ChallengeID, func(ctx context.Context) (LadderOperationResult[MatchView], error) {
		return runInTx(s, ctx, submitTx)
	})
	return finish(s, ctx, box, result, err)
}

// ValidateMatch lets the loser confirm or dispute a reported result.
// A confirmation after the deadline is still accepted; a dispute is not.
func (s *LadderService) ValidateMatch(ctx context.Context, matchID, loserID uuid.UUID, action ValidateAction, reason string) (*MatchView, error) {
	box := &outbox{}

	validateTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[MatchView], error) {
		if err := parseValidateAction(action); err != nil {
			return failure[MatchView](err)
		}
		if action == ActionDispute && strings.TrimSpace(reason) == "" {
			return failure[MatchView](invalid("reason", "a reason is required to dispute a result"))
		}

		match, err := s.repo.GetMatchForUpdate(ctx, db, matchID)
		if err != nil {
			return notFoundOr[MatchView](err, "match")
		}
		if match.LoserID != loserID {
			return failure[MatchView](forbidden("only the losing player can validate this result"))
		}
		if match.Status != ladderdomain.MatchPendingValidation {
			return failure[MatchView](conflict("match is already %s", match.Status))
		}

		now := s.clock.Now()
		if action == ActionConfirm {
			next, err := match.State().Confirm(loserID, now)
			if err != nil {
				return failure[MatchView](conflict("%v", err))
			}
			if err := s.settle(ctx, db, match, next, triggerManual, box); err != nil {
				if errors.Is(err, ladderdb.ErrNoRowsAffected) {
					return failure[MatchView](conflict("match was settled by another request"))
				}
				return LadderOperationResult[MatchView]{}, err
			}
			return success(toMatchView(match))
		}

		next, err := match.State().Dispute(reason, now)
		if errors.Is(err, ladderdomain.ErrDeadlinePassed) {
			return failure[MatchView](invalid("match", "validation deadline expired"))
		}
		if err != nil {
			return failure[MatchView](conflict("%v", err))
		}
		match.SetState(next)
		if err := s.repo.TransitionMatch(ctx, db, match, ladderdomain.MatchPendingValidation); err != nil {
			if errors.Is(err, ladderdb.ErrNoRowsAffected) {
				return failure[MatchView](conflict("match was settled by another request"))
			}
			return LadderOperationResult[MatchView]{}, err
		}

		challenge, err := s.repo.GetChallenge(ctx, db, match.ChallengeID)
		if err != nil {
			return LadderOperationResult[MatchView]{}, err
		}
		if err := s.repo.AdjustActiveChallenges(ctx, db, challenge.ChallengerID, -1); err != nil {
			return LadderOperationResult[MatchView]{}, err
		}

		box.add(ladderdomain.Notification{
			Type:        ladderdomain.NotifyMatchDisputed,
			RecipientID: match.ReportedBy,
			SenderID:    loserID,
			Title:       "Match result disputed",
			Message:     "Your reported result was disputed and will be reviewed",
			ReferenceID: match.ID,
			Data:        map[string]any{"reason": match.DisputeReason},
		})
		return success(toMatchView(match))
	}

	result, err := withTelemetry(s, ctx, "ValidateMatch", matchID, func(ctx context.Context) (LadderOperationResult[MatchView], error) {
		return runInTx(s, ctx, validateTx)
	})
	return finish(s, ctx, box, result, err)
}

// settle claims the match with its validated state, then moves points,
// updates both players, completes the challenge and reranks. The claim is
// the first write: ErrNoRowsAffected means nothing was changed.
func (s *LadderService) settle(ctx context.Context, db bun.IDB, match *ladderdb.Match, next ladderdomain.MatchState, trigger string, box *outbox) error {
	match.SetState(next)
	if err := s.repo.TransitionMatch(ctx, db, match, ladderdomain.MatchPendingValidation); err != nil {
		return err
	}

	challenge, err := s.repo.GetChallengeForUpdate(ctx, db, match.ChallengeID)
	if err != nil {
		return fmt.Errorf("load challenge: %w", err)
	}
	locked, err := s.repo.GetPlayersForUpdate(ctx, db, match.WinnerID, match.LoserID)
	if err != nil {
		return fmt.Errorf("lock players: %w", err)
	}
	all, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return err
	}
	for i, p := range all {
		if l, ok := locked[p.ID]; ok {
			all[i] = l
		}
	}
	winner, loser := locked[match.WinnerID], locked[match.LoserID]

	// Payout uses positions derived from points, never the cached ordinals.
	general := ladderdomain.Positions(ladderdomain.OverallCategory{}, standingsOf(all))
	unranked := len(general) + 1
	award := ladderdomain.CalculateMatchPoints(
		ladderdomain.RatingSnapshot{Points: winner.Points, RankingGeneral: positionOr(general, winner.ID, unranked), Provisional: winner.Provisional},
		ladderdomain.RatingSnapshot{Points: loser.Points, RankingGeneral: positionOr(general, loser.ID, unranked), Provisional: loser.Provisional},
	)
	before := &ladderdb.RankingSnapshot{Winner: winner.Ranks(), Loser: loser.Ranks()}

	now := s.clock.Now()
	winnerOld, loserOld := winner.Points, loser.Points
	winner.Points = ladderdomain.ApplyDelta(winner.Points, award.WinnerDelta)
	loser.Points = ladderdomain.ApplyDelta(loser.Points, award.LoserDelta)
	winner.Wins++
	winner.WinStreak++
	loser.Losses++
	loser.WinStreak = 0
	winner.LastActivityAt = &now
	loser.LastActivityAt = &now

	for _, p := range []*ladderdb.Player{winner, loser} {
		u := ladderdomain.UpdateProvisionalStatus(p.Provisional, p.ProvisionalMatches)
		p.Provisional = u.Provisional
		p.ProvisionalMatches = u.MatchesPlayed
		if u.BecameRegular {
			s.logger.InfoContext(ctx, "Player graduated from provisional",
				attr.PlayerID(p.ID),
				attr.ExtractCorrelationID(ctx),
			)
		}
		if p.ID == challenge.ChallengerID {
			p.ActiveChallenges = max(0, p.ActiveChallenges-1)
		}
		if err := s.repo.SavePlayerState(ctx, db, p); err != nil {
			return err
		}
	}

	err = s.repo.AppendPointHistory(ctx, db,
		&ladderdb.PointHistory{PlayerID: winner.ID, Delta: winner.Points - winnerOld, Balance: winner.Points, Reason: ladderdb.ReasonMatchWin, ReferenceID: match.ID, CreatedAt: now},
		&ladderdb.PointHistory{PlayerID: loser.ID, Delta: loser.Points - loserOld, Balance: loser.Points, Reason: ladderdb.ReasonMatchLoss, ReferenceID: match.ID, CreatedAt: now},
	)
	if err != nil {
		return err
	}

	completed, err := challenge.State().Complete()
	if err != nil {
		return err
	}
	challenge.SetState(completed)
	if err := s.repo.TransitionChallenge(ctx, db, challenge, ladderdomain.ChallengeAwaitingValidation); err != nil {
		return fmt.Errorf("complete challenge: %w", err)
	}

	if err := s.rerank(ctx, db, all); err != nil {
		return err
	}

	match.WinnerPointsDelta = award.WinnerDelta
	match.LoserPointsDelta = award.LoserDelta
	match.Multiplier = award.Multiplier
	match.RankingBefore = before
	match.RankingAfter = &ladderdb.RankingSnapshot{Winner: winner.Ranks(), Loser: loser.Ranks()}
	if err := s.repo.RecordSettlement(ctx, db, match); err != nil {
		return err
	}

	s.metrics.RecordPointsTransferred(ctx, string(ladderdb.ReasonMatchWin), winner.Points-winnerOld)
	s.metrics.RecordMatchesFinalized(ctx, trigger, 1)
	s.logger.InfoContext(ctx, "Match settled",
		attr.UUID("match_id", match.ID),
		attr.String("trigger", trigger),
		attr.Int("winner_delta", award.WinnerDelta),
		attr.Int("loser_delta", award.LoserDelta),
		attr.Any("multiplier", award.Multiplier),
		attr.ExtractCorrelationID(ctx),
	)

	for _, p := range []*ladderdb.Player{winner, loser} {
		box.add(ladderdomain.Notification{
			Type:        ladderdomain.NotifyMatchValidated,
			RecipientID: p.ID,
			Title:       "Match result confirmed",
			Message:     fmt.Sprintf("The result %s is final", match.Score),
			ReferenceID: match.ID,
			Data:        map[string]any{"auto_validated": match.AutoValidated},
		})
	}
	box.add(
		pointsChanged(winner, winner.Points-winnerOld, match.ID),
		pointsChanged(loser, loser.Points-loserOld, match.ID),
	)
	if n, ok := rankingUpdated(winner, before.Winner.General, match.ID); ok {
		box.add(n)
	}
	if n, ok := rankingUpdated(loser, before.Loser.General, match.ID); ok {
		box.add(n)
	}
	return nil
}

func positionOr(positions map[uuid.UUID]int, id uuid.UUID, fallback int) int {
	if p, ok := positions[id]; ok {
		return p
	}
	return fallback
}

func pointsChanged(p *ladderdb.Player, delta int, ref uuid.UUID) ladderdomain.Notification {
	return ladderdomain.Notification{
		Type:        ladderdomain.NotifyPointsChanged,
		RecipientID: p.ID,
		Title:       "Points updated",
		Message:     fmt.Sprintf("Your balance changed by %+d to %d points", delta, p.Points),
		ReferenceID: ref,
		Data:        map[string]any{"delta": delta, "points": p.Points},
	}
}

func rankingUpdated(p *ladderdb.Player, previous int, ref uuid.UUID) (ladderdomain.Notification, bool) {
	current := p.RankingGeneral
	if current == previous {
		return ladderdomain.Notification{}, false
	}
	var msg string
	switch {
	case previous == 0:
		msg = fmt.Sprintf("You entered the ranking at #%d", current)
	case current < previous:
		msg = fmt.Sprintf("You climbed %d position(s) to #%d", previous-current, current)
	default:
		msg = fmt.Sprintf("You dropped %d position(s) to #%d", current-previous, current)
	}
	return ladderdomain.Notification{
		Type:        ladderdomain.NotifyRankingUpdated,
		RecipientID: p.ID,
		Title:       "Ranking updated",
		Message:     msg,
		ReferenceID: ref,
		Data:        map[string]any{"previous": previous, "current": current},
	}, true
}

func (s *LadderService) GetMatch(ctx context.Context, matchID uuid.UUID) (*MatchView, error) {
	m, err := s.repo.GetMatch(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	v := toMatchView(m)
	return &v, nil
}

func (s *LadderService) ListPendingValidations(ctx context.Context, loserID uuid.UUID) ([]MatchView, error) {
	matches, err := s.repo.ListPendingValidationsForLoser(ctx, nil, loserID)
	if err != nil {
		return nil, err
	}
	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchView(m))
	}
	return out, nil
}
