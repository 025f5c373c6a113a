package ladderservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	laddermetrics "github.com/Black-And-White-Club/acerank/pkg/observability/metrics/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "LadderService"

// LadderService implements the Service interface.
type LadderService struct {
	repo     ladderdb.Repository
	notifier Notifier
	logger   *slog.Logger
	metrics  laddermetrics.LadderMetrics
	tracer   trace.Tracer
	db       *bun.DB
	clock    Clock
}

// NewLadderService creates a new LadderService. A nil notifier drops notifications.
func NewLadderService(
	repo ladderdb.Repository,
	notifier Notifier,
	logger *slog.Logger,
	metrics laddermetrics.LadderMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *LadderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LadderService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
		clock:    realClock{},
	}
}

var _ Service = (*LadderService)(nil)

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any] func(ctx context.Context) (LadderOperationResult[S], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any](
	s *LadderService,
	ctx context.Context,
	operationName string,
	subjectID uuid.UUID,
	op operationFunc[S],
) (result LadderOperationResult[S], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("subject_id", subjectID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.UUID("subject_id", subjectID),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.UUID("subject_id", subjectID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = LadderOperationResult[S]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.Error(*result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// errRollback aborts a transaction whose operation ended in a failure result.
var errRollback = errors.New("rollback failure result")

// keptFailure marks a failure whose writes must still be committed.
type keptFailure struct{ error }

func (k keptFailure) Unwrap() error { return k.error }

// runInTx ensures the operation runs within a transaction. A failure result
// rolls the transaction back unless it was built with failureKeepingWrites.
func runInTx[S any](
	s *LadderService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (LadderOperationResult[S], error),
) (LadderOperationResult[S], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result LadderOperationResult[S]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && !committed(result) {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		err = nil
	}

	return result, err
}

// committed reports whether the writes behind result are kept.
func committed[S any](result LadderOperationResult[S]) bool {
	if !result.IsFailure() {
		return true
	}
	var kept keptFailure
	return errors.As(*result.Failure, &kept)
}

// unwrap turns an operation result into the public (value, error) pair.
func unwrap[S any](result LadderOperationResult[S], err error) (*S, error) {
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		var kept keptFailure
		if errors.As(*result.Failure, &kept) {
			return nil, kept.error
		}
		return nil, *result.Failure
	}
	return result.Success, nil
}

// finish delivers queued notifications once the transaction committed and
// unwraps the result.
func finish[S any](s *LadderService, ctx context.Context, box *outbox, result LadderOperationResult[S], err error) (*S, error) {
	if err == nil && committed(result) {
		s.deliver(ctx, box)
	}
	return unwrap(result, err)
}

func success[S any](v S) (LadderOperationResult[S], error) {
	return results.SuccessResult[S, error](v), nil
}

func failure[S any](err error) (LadderOperationResult[S], error) {
	return results.FailureResult[S, error](err), nil
}

// failureKeepingWrites reports err to the caller but commits what the
// operation already wrote.
func failureKeepingWrites[S any](err error) (LadderOperationResult[S], error) {
	return results.FailureResult[S, error](keptFailure{err}), nil
}

// outbox collects notifications inside a transaction; they are sent only after commit.
type outbox struct {
	items []ladderdomain.Notification
}

func (o *outbox) add(n ...ladderdomain.Notification) {
	o.items = append(o.items, n...)
}

func (s *LadderService) deliver(ctx context.Context, o *outbox) {
	if s.notifier == nil {
		return
	}
	for _, n := range o.items {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "Failed to deliver notification",
				attr.String("type", string(n.Type)),
				attr.UUID("recipient_id", n.RecipientID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}
	}
}
