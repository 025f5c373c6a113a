package ladderrouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	ladderhandlers "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/handlers"
	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// LadderRouter handles Watermill handler registration for ladder events.
type LadderRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewLadderRouter creates a new LadderRouter. A nil registry disables router metrics.
func NewLadderRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *LadderRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "acerank", "ladder")
		metricsBuilder = &builder
	}
	return &LadderRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds middleware and registers the ladder handlers.
func (r *LadderRouter) Configure(_ context.Context, handlers ladderhandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3, InitialInterval: 100 * time.Millisecond}.Middleware,
	)

	r.registerHandlers(handlers)
	return nil
}

// registerHandlers wires topics to handler methods.
func (r *LadderRouter) registerHandlers(handlers ladderhandlers.Handlers) {
	r.logger.Info("Registering ladder module handlers",
		attr.String("recompute_subject", ladderevents.RankingsRecomputeRequestedV1),
	)

	registerHandler(r, ladderevents.RankingsRecomputeRequestedV1, handlers.HandleRankingsRecomputeRequested)

	r.logger.Info("Ladder module handlers registered successfully")
}

// registerHandler registers a typed handler and publishes whatever it returns
// to the topic carried in each result's metadata.
func registerHandler[T any](
	r *LadderRouter,
	topic string,
	handler handlerwrapper.TypedHandler[T],
) {
	handlerName := "ladder." + topic
	wrapped := handlerwrapper.WrapTransformingTyped(handlerName, r.logger, r.tracer, handler)

	r.Router.AddHandler(
		handlerName,
		topic,
		r.subscriber,
		"",
		nil,
		func(msg *message.Message) ([]*message.Message, error) {
			produced, err := wrapped(msg)
			if err != nil {
				r.logger.ErrorContext(msg.Context(), "Error processing message",
					attr.String("handler", handlerName),
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				return nil, err
			}
			for _, m := range produced {
				publishTopic := m.Metadata.Get(handlerwrapper.MetadataTopic)
				if err := r.publisher.Publish(publishTopic, m); err != nil {
					return nil, fmt.Errorf("publish to %s: %w", publishTopic, err)
				}
			}
			return nil, nil
		},
	)
}

// Close shuts down the router.
func (r *LadderRouter) Close() error {
	return r.Router.Close()
}
