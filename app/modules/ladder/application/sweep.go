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

const (
	StaleChallengeRetention = 6 // months
	StaleMatchRetention     = 3 // months
)

// SweepExpiredValidations settles every pending match whose validation window
// has closed. Each match runs in its own transaction; a match settled by a
// concurrent confirmation is skipped. Safe to run repeatedly.
func (s *LadderService) SweepExpiredValidations(ctx context.Context) (int, error) {
	sweep := func(ctx context.Context) (LadderOperationResult[int], error) {
		now := s.clock.Now()
		due, err := s.repo.ListMatchesPastDeadline(ctx, nil, now)
		if err != nil {
			return LadderOperationResult[int]{}, err
		}

		settled := 0
		var errs []error
		for _, m := range due {
			box := &outbox{}
			res, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (LadderOperationResult[bool], error) {
				return s.autoValidate(ctx, db, m.ID, now, box)
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("match %s: %w", m.ID, err))
				continue
			}
			s.deliver(ctx, box)
			if res.Success != nil && *res.Success {
				settled++
			}
		}
		return batchResult(settled, errors.Join(errs...))
	}

	result, err := withTelemetry(s, ctx, "SweepExpiredValidations", uuid.Nil, sweep)
	return countOf(result), err
}

func (s *LadderService) autoValidate(ctx context.Context, db bun.IDB, matchID uuid.UUID, now time.Time, box *outbox) (LadderOperationResult[bool], error) {
	match, err := s.repo.GetMatchForUpdate(ctx, db, matchID)
	if err != nil {
		if errors.Is(err, ladderdb.ErrNotFound) {
			return success(false)
		}
		return LadderOperationResult[bool]{}, err
	}
	if match.Status != ladderdomain.MatchPendingValidation {
		return success(false)
	}
	next, err := match.State().AutoValidate(now)
	if errors.Is(err, ladderdomain.ErrDeadlineNotReached) {
		return success(false)
	}
	if err != nil {
		return LadderOperationResult[bool]{}, err
	}
	if err := s.settle(ctx, db, match, next, triggerAuto, box); err != nil {
		if errors.Is(err, ladderdb.ErrNoRowsAffected) {
			return success(false)
		}
		return LadderOperationResult[bool]{}, err
	}
	return success(true)
}

// ExpireStaleChallenges closes pending challenges nobody answered in time and
// frees the challengers' slots.
func (s *LadderService) ExpireStaleChallenges(ctx context.Context) (int, error) {
	expire := func(ctx context.Context) (LadderOperationResult[int], error) {
		now := s.clock.Now()
		due, err := s.repo.ListExpiredPendingChallenges(ctx, nil, now)
		if err != nil {
			return LadderOperationResult[int]{}, err
		}

		expired := 0
		var errs []error
		for _, c := range due {
			box := &outbox{}
			res, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (LadderOperationResult[bool], error) {
				challenge, err := s.repo.GetChallengeForUpdate(ctx, db, c.ID)
				if err != nil {
					return LadderOperationResult[bool]{}, err
				}
				if challenge.Status != ladderdomain.ChallengePending {
					return success(false)
				}
				err = s.expireChallenge(ctx, db, challenge, now, box)
				if errors.Is(err, ladderdomain.ErrDeadlineNotReached) || errors.Is(err, ladderdb.ErrNoRowsAffected) {
					return success(false)
				}
				if err != nil {
					return LadderOperationResult[bool]{}, err
				}
				return success(true)
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("challenge %s: %w", c.ID, err))
				continue
			}
			s.deliver(ctx, box)
			if res.Success != nil && *res.Success {
				expired++
			}
		}
		s.metrics.RecordChallengesExpired(ctx, expired)
		return batchResult(expired, errors.Join(errs...))
	}

	result, err := withTelemetry(s, ctx, "ExpireStaleChallenges", uuid.Nil, expire)
	return countOf(result), err
}

// CleanupOldData deletes long-closed challenges and rejects matches that
// stayed unvalidated far past any window.
func (s *LadderService) CleanupOldData(ctx context.Context) (*CleanupReport, error) {
	cleanupTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[CleanupReport], error) {
		now := s.clock.Now()
		report := CleanupReport{}

		deleted, err := s.repo.DeleteStaleChallenges(ctx, db, now.AddDate(0, -StaleChallengeRetention, 0))
		if err != nil {
			return LadderOperationResult[CleanupReport]{}, err
		}
		report.ChallengesDeleted = deleted

		stale, err := s.repo.ListStaleMatches(ctx, db, now.AddDate(0, -StaleMatchRetention, 0))
		if err != nil {
			return LadderOperationResult[CleanupReport]{}, err
		}
		for _, m := range stale {
			next, err := m.State().Reject()
			if err != nil {
				continue
			}
			m.SetState(next)
			if err := s.repo.TransitionMatch(ctx, db, m, ladderdomain.MatchPendingValidation); err != nil {
				if errors.Is(err, ladderdb.ErrNoRowsAffected) {
					continue
				}
				return LadderOperationResult[CleanupReport]{}, err
			}
			challenge, err := s.repo.GetChallenge(ctx, db, m.ChallengeID)
			if err != nil {
				return LadderOperationResult[CleanupReport]{}, err
			}
			if err := s.repo.AdjustActiveChallenges(ctx, db, challenge.ChallengerID, -1); err != nil {
				return LadderOperationResult[CleanupReport]{}, err
			}
			report.MatchesRejected++
		}

		s.logger.InfoContext(ctx, "Cleanup finished",
			attr.Int("challenges_deleted", report.ChallengesDeleted),
			attr.Int("matches_rejected", report.MatchesRejected),
			attr.ExtractCorrelationID(ctx),
		)
		return success(report)
	}

	return unwrap(withTelemetry(s, ctx, "CleanupOldData", uuid.Nil, func(ctx context.Context) (LadderOperationResult[CleanupReport], error) {
		return runInTx(s, ctx, cleanupTx)
	}))
}

// batchResult returns a count alongside a possibly nil batch error.
func batchResult(n int, err error) (LadderOperationResult[int], error) {
	r, _ := success(n)
	return r, err
}

func countOf(r LadderOperationResult[int]) int {
	if r.Success == nil {
		return 0
	}
	return *r.Success
}
