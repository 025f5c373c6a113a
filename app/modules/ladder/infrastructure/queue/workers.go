package ladderqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/riverqueue/river"
)

// Sweeper is the slice of the ladder service the periodic jobs drive.
type Sweeper interface {
	SweepExpiredValidations(ctx context.Context) (int, error)
	ExpireStaleChallenges(ctx context.Context) (int, error)
	RecomputeRankings(ctx context.Context) error
	CleanupOldData(ctx context.Context) (*ladderservice.CleanupReport, error)
}

// ValidationSweepWorker runs the validation sweep and challenge expiry.
type ValidationSweepWorker struct {
	river.WorkerDefaults[ValidationSweepJob]
	sweeper Sweeper
	logger  *slog.Logger
}

func NewValidationSweepWorker(logger *slog.Logger, sweeper Sweeper) *ValidationSweepWorker {
	return &ValidationSweepWorker{sweeper: sweeper, logger: logger}
}

// Work settles expired validations first so that expiring challenges never
// races a settlement touching the same challenger slot.
func (w *ValidationSweepWorker) Work(ctx context.Context, job *river.Job[ValidationSweepJob]) error {
	settled, sweepErr := w.sweeper.SweepExpiredValidations(ctx)
	if sweepErr != nil {
		w.logger.ErrorContext(ctx, "Validation sweep failed", attr.Error(sweepErr))
	}

	expired, expireErr := w.sweeper.ExpireStaleChallenges(ctx)
	if expireErr != nil {
		w.logger.ErrorContext(ctx, "Challenge expiry failed", attr.Error(expireErr))
	}

	if err := errors.Join(sweepErr, expireErr); err != nil {
		return fmt.Errorf("validation sweep: %w", err)
	}

	w.logger.InfoContext(ctx, "Validation sweep completed",
		attr.Int("matches_settled", settled),
		attr.Int("challenges_expired", expired),
	)
	return nil
}

// Timeout bounds a single sweep run.
func (w *ValidationSweepWorker) Timeout(*river.Job[ValidationSweepJob]) time.Duration {
	return 5 * time.Minute
}

// RankingRefreshWorker rebuilds the ranking caches.
type RankingRefreshWorker struct {
	river.WorkerDefaults[RankingRefreshJob]
	sweeper Sweeper
	logger  *slog.Logger
}

func NewRankingRefreshWorker(logger *slog.Logger, sweeper Sweeper) *RankingRefreshWorker {
	return &RankingRefreshWorker{sweeper: sweeper, logger: logger}
}

func (w *RankingRefreshWorker) Work(ctx context.Context, job *river.Job[RankingRefreshJob]) error {
	start := time.Now()
	if err := w.sweeper.RecomputeRankings(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Ranking refresh failed",
			attr.String("reason", job.Args.Reason),
			attr.Error(err),
		)
		return fmt.Errorf("ranking refresh: %w", err)
	}

	w.logger.InfoContext(ctx, "Ranking refresh completed",
		attr.String("reason", job.Args.Reason),
		attr.Duration("duration", time.Since(start)),
	)
	return nil
}

// CleanupWorker purges old ladder data.
type CleanupWorker struct {
	river.WorkerDefaults[CleanupJob]
	sweeper Sweeper
	logger  *slog.Logger
}

func NewCleanupWorker(logger *slog.Logger, sweeper Sweeper) *CleanupWorker {
	return &CleanupWorker{sweeper: sweeper, logger: logger}
}

func (w *CleanupWorker) Work(ctx context.Context, job *river.Job[CleanupJob]) error {
	report, err := w.sweeper.CleanupOldData(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Ladder cleanup failed", attr.Error(err))
		return fmt.Errorf("ladder cleanup: %w", err)
	}

	w.logger.InfoContext(ctx, "Ladder cleanup completed",
		attr.Int("challenges_deleted", report.ChallengesDeleted),
		attr.Int("matches_rejected", report.MatchesRejected),
	)
	return nil
}
