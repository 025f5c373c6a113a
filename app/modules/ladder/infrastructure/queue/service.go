package ladderqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"
)

// LadderQueue is the dedicated River queue for ladder maintenance jobs.
const LadderQueue = "ladder"

// Metrics is the subset of ladder metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// Schedule sets how often each periodic job fires. Zero values fall back to
// DefaultSchedule.
type Schedule struct {
	ValidationSweep time.Duration
	RankingRefresh  time.Duration
	Cleanup         time.Duration
}

// DefaultSchedule is used for any unset interval.
var DefaultSchedule = Schedule{
	ValidationSweep: 15 * time.Minute,
	RankingRefresh:  6 * time.Hour,
	Cleanup:         7 * 24 * time.Hour,
}

func (s Schedule) withDefaults() Schedule {
	if s.ValidationSweep <= 0 {
		s.ValidationSweep = DefaultSchedule.ValidationSweep
	}
	if s.RankingRefresh <= 0 {
		s.RankingRefresh = DefaultSchedule.RankingRefresh
	}
	if s.Cleanup <= 0 {
		s.Cleanup = DefaultSchedule.Cleanup
	}
	return s
}

// QueueService defines the contract for ladder background jobs.
type QueueService interface {
	// TriggerRankingRefresh enqueues an immediate ranking refresh.
	TriggerRankingRefresh(ctx context.Context, reason string) error
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs the ladder's periodic jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics
}

// NewService creates a River-backed queue service with the sweep, ranking
// refresh and cleanup jobs registered as periodic jobs.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, sweeper Sweeper, schedule Schedule) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_ladder_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing ladder queue service")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewValidationSweepWorker(ctxLogger, sweeper))
	river.AddWorker(workers, NewRankingRefreshWorker(ctxLogger, sweeper))
	river.AddWorker(workers, NewCleanupWorker(ctxLogger, sweeper))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			LadderQueue:        {MaxWorkers: 4},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs(schedule.withDefaults()),
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Ladder queue service initialized successfully")
	return service, nil
}

func periodicJobs(s Schedule) []*river.PeriodicJob {
	opts := &river.InsertOpts{Queue: LadderQueue}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(s.ValidationSweep),
			func() (river.JobArgs, *river.InsertOpts) { return ValidationSweepJob{}, opts },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(s.RankingRefresh),
			func() (river.JobArgs, *river.InsertOpts) {
				return RankingRefreshJob{Reason: "scheduled"}, opts
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(s.Cleanup),
			func() (river.JobArgs, *river.InsertOpts) { return CleanupJob{}, opts },
			nil,
		),
	}
}

// Start starts the River client and its periodic jobs.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.logger.Info("Starting ladder queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))

	s.logger.Info("Ladder queue service started successfully")
	return nil
}

// Stop waits for running jobs to finish and releases the pgx pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping ladder queue service")

	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", time.Since(start))

	s.logger.Info("Ladder queue service stopped successfully")
	return nil
}

// TriggerRankingRefresh enqueues a one-off ranking refresh. Requests that
// arrive while one is already waiting collapse into it.
func (s *Service) TriggerRankingRefresh(ctx context.Context, reason string) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "trigger_ranking_refresh", "river")

	res, err := s.client.Insert(ctx, RankingRefreshJob{Reason: reason}, &river.InsertOpts{
		Queue: LadderQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: []rivertype.JobState{rivertype.JobStateAvailable, rivertype.JobStateScheduled, rivertype.JobStatePending, rivertype.JobStateRetryable, rivertype.JobStateRunning},
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue ranking refresh", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "trigger_ranking_refresh", "river")
		return fmt.Errorf("failed to enqueue ranking refresh: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "trigger_ranking_refresh", "river")
	s.metrics.RecordOperationDuration(ctx, "trigger_ranking_refresh", "river", time.Since(start))

	s.logger.InfoContext(ctx, "Ranking refresh enqueued",
		attr.String("reason", reason),
		attr.Int64("job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// HealthCheck verifies the queue can reach its job table.
func (s *Service) HealthCheck(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "health_check", "river")

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Where("kind LIKE ?", "ladder_%").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("queue service health check failed: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "health_check", "river")
	s.metrics.RecordOperationDuration(ctx, "health_check", "river", time.Since(start))

	s.logger.Debug("Queue service health check passed", attr.Int("ladder_jobs", count))
	return nil
}
