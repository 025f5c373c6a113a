package ladderhandlers

import (
	"log/slog"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	"go.opentelemetry.io/otel/trace"
)

// LadderHandlers implements the Handlers interface.
type LadderHandlers struct {
	service ladderservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLadderHandlers creates a new LadderHandlers instance.
func NewLadderHandlers(
	service ladderservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &LadderHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}
