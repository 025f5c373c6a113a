package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	"github.com/Black-And-White-Club/acerank/app/modules/ladder"
	ladderqueue "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/queue"
	ladderrouter "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/router"
	"github.com/Black-And-White-Club/acerank/config"
	"github.com/Black-And-White-Club/acerank/pkg/jwt"
	"github.com/Black-And-White-Club/acerank/pkg/observability"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Modules groups the application's feature modules.
type Modules struct {
	LadderModule *ladder.Module
}

// App owns every long-lived component of the process.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPServer    *http.Server
	Modules       Modules
}

// NewApp creates an App for cfg. Call Initialize before Run.
func NewApp(cfg *config.Config) *App {
	return &App{Config: cfg}
}

// Initialize connects to Postgres and NATS and builds the modules.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.Config
	app.Observability = observability.Init(config.ToObsConfig(cfg))
	logger := app.Observability.Provider.Logger

	logger.InfoContext(ctx, "Initializing acerank",
		attr.String("http_address", cfg.HTTP.Address),
		attr.Bool("nats_enabled", cfg.NATS.URL != ""),
	)

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
		if err := eventbus.InitializeStreams(ctx, bus, logger); err != nil {
			return fmt.Errorf("failed to initialize streams: %w", err)
		}
	} else {
		logger.WarnContext(ctx, "NATS_URL not set; using in-process event bus")
		app.EventBus = eventbus.NewInMemoryEventBus(logger)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watermill router: %w", err)
	}
	app.Router = router

	httpRouter := chi.NewRouter()
	httpRouter.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	httpRouter.Get("/healthz", app.handleHealth)
	if app.Observability.Registry.Prometheus != nil {
		httpRouter.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry.Prometheus, promhttp.HandlerOpts{}))
	}

	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer)

	ladderModule, err := ladder.NewLadderModule(
		ctx,
		*app.Observability,
		app.EventBus,
		router,
		httpRouter,
		tokens,
		ctx,
		app.DB,
		ladder.Config{
			DatabaseDSN: cfg.Postgres.DSN,
			Schedule: ladderqueue.Schedule{
				ValidationSweep: cfg.Ladder.SweepInterval,
				RankingRefresh:  cfg.Ladder.RankingRefreshInterval,
				Cleanup:         cfg.Ladder.CleanupInterval,
			},
			HTTP: ladderrouter.HTTPConfig{
				AllowedOrigins:    cfg.HTTP.AllowedOrigins,
				RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
				Burst:             cfg.HTTP.Burst,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize ladder module: %w", err)
	}
	app.Modules.LadderModule = ladderModule

	app.HTTPServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           otelhttp.NewHandler(httpRouter, "acerank.http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoContext(ctx, "acerank initialized")
	return nil
}

// Run serves HTTP, consumes events and runs the background jobs until ctx is
// cancelled or one of them fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "HTTP server listening", attr.String("address", app.HTTPServer.Addr))
		if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := app.Router.Run(gctx); err != nil {
			return fmt.Errorf("watermill router: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.Modules.LadderModule.Run(gctx, nil)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.HTTPServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", attr.Error(err))
		}
		return nil
	})

	return g.Wait()
}

// Close releases every resource Initialize acquired.
func (app *App) Close() error {
	var errs []error

	if app.Modules.LadderModule != nil {
		if err := app.Modules.LadderModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close watermill router: %w", err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if q := app.Modules.LadderModule; q != nil && q.Queue != nil {
		if err := q.Queue.HealthCheck(r.Context()); err != nil {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
