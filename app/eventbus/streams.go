package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
)

// LadderStream captures every ladder subject.
const LadderStream = "ladder"

// StreamSubjects maps each stream to the subjects it stores.
var StreamSubjects = map[string][]string{
	LadderStream: {"ladder.>"},
}

// InitializeStreams creates the streams the application publishes to.
func InitializeStreams(ctx context.Context, bus EventBus, logger *slog.Logger) error {
	for name, subjects := range StreamSubjects {
		if err := bus.CreateStream(ctx, name, subjects...); err != nil {
			logger.ErrorContext(ctx, "Failed to create JetStream stream",
				attr.String("stream", name),
				attr.Error(err),
			)
			return fmt.Errorf("failed to initialize stream %s: %w", name, err)
		}
	}
	return nil
}
