package ladder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderhandlers "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/handlers"
	laddernotify "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/notifications"
	ladderqueue "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/queue"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	ladderrouter "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/router"
	"github.com/Black-And-White-Club/acerank/pkg/jwt"
	"github.com/Black-And-White-Club/acerank/pkg/observability"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	laddermetrics "github.com/Black-And-White-Club/acerank/pkg/observability/metrics/ladder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Config carries the module's runtime settings.
type Config struct {
	// DatabaseDSN feeds River's pgx pool. Empty disables the job queue.
	DatabaseDSN string
	Schedule    ladderqueue.Schedule
	HTTP        ladderrouter.HTTPConfig
}

// Module represents the ladder module.
type Module struct {
	LadderService ladderservice.Service
	LadderRouter  *ladderrouter.LadderRouter
	Queue         ladderqueue.QueueService
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewLadderModule creates and initializes a new ladder module.
func NewLadderModule(
	ctx context.Context,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	tokens jwt.Service,
	routerCtx context.Context,
	db *bun.DB,
	cfg Config,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "ladder.NewLadderModule initializing")

	// 1. Initialize Repository
	repo := ladderdb.NewRepository(db)

	// 2. Initialize Metrics
	var metrics laddermetrics.LadderMetrics
	if obs.Registry.Prometheus != nil {
		metrics = laddermetrics.NewPrometheus(obs.Registry.Prometheus, "acerank")
	} else {
		metrics = laddermetrics.NewNoop()
	}

	// 3. Initialize Service
	notifier := laddernotify.NewPublisher(eventBus, logger)
	service := ladderservice.NewLadderService(repo, notifier, logger, metrics, tracer, db)

	// 4. Initialize Handlers
	handlers := ladderhandlers.NewLadderHandlers(service, logger, tracer)

	// 5. Initialize and configure the event router
	ladderRouter := ladderrouter.NewLadderRouter(
		logger,
		router,
		eventBus,
		eventBus,
		tracer,
		obs.Registry.Prometheus,
	)
	if err := ladderRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure ladder router: %w", err)
	}

	// 6. Mount the REST API
	if httpRouter != nil {
		ladderrouter.RegisterHTTPRoutes(httpRouter, handlers, tokens, cfg.HTTP)
	}

	module := &Module{
		LadderService: service,
		LadderRouter:  ladderRouter,
		observability: obs,
	}

	// 7. Initialize the job queue
	if cfg.DatabaseDSN != "" && db != nil {
		queue, err := ladderqueue.NewService(ctx, db, logger, cfg.DatabaseDSN, metrics, service, cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("failed to create ladder queue service: %w", err)
		}
		module.Queue = queue
	} else {
		logger.WarnContext(ctx, "Ladder job queue disabled; sweeps will not run on a schedule")
	}

	return module, nil
}

// Run starts the ladder module's background jobs and blocks until ctx ends.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting ladder module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to start ladder queue", attr.Error(err))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Ladder module goroutine stopped")
}

// Close shuts down the ladder module.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping ladder module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var errs []error
	if m.Queue != nil {
		if err := m.Queue.Stop(context.Background()); err != nil {
			logger.Error("Error stopping ladder queue", attr.Error(err))
			errs = append(errs, fmt.Errorf("error stopping ladder queue: %w", err))
		}
	}

	if m.LadderRouter != nil {
		if err := m.LadderRouter.Close(); err != nil {
			logger.Error("Error closing LadderRouter from module", attr.Error(err))
			errs = append(errs, fmt.Errorf("error closing LadderRouter: %w", err))
		}
	}

	logger.Info("Ladder module stopped")
	return errors.Join(errs...)
}
