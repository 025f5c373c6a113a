package containers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
)

const natsImage = "nats:2.10-alpine"

// NatsOption tweaks the NATS server started by SetupNatsContainer.
type NatsOption func(*natsSettings)

type natsSettings struct {
	maxPayload string
	startup    time.Duration
}

// WithNatsMaxPayload overrides the server's max_payload (e.g. "2MB").
func WithNatsMaxPayload(size string) NatsOption {
	return func(s *natsSettings) { s.maxPayload = size }
}

// WithNatsStartupTimeout bounds how long to wait for the server to accept clients.
func WithNatsStartupTimeout(d time.Duration) NatsOption {
	return func(s *natsSettings) { s.startup = d }
}

// SetupNatsContainer starts a NATS server for the ladder event bus and returns
// the container with its client URL. The module enables JetStream, so stream
// provisioning in eventbus.InitializeStreams works against it as well.
func SetupNatsContainer(ctx context.Context, opts ...NatsOption) (*nats.NATSContainer, string, error) {
	settings := natsSettings{startup: 45 * time.Second}
	for _, opt := range opts {
		opt(&settings)
	}

	customizers := []testcontainers.ContainerCustomizer{
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Server is ready"),
				wait.ForListeningPort("4222/tcp"),
			).WithDeadline(settings.startup),
		),
	}
	if settings.maxPayload != "" {
		customizers = append(customizers, nats.WithArgument("max_payload", settings.maxPayload))
	}

	container, err := nats.Run(ctx, natsImage, customizers...)
	if err != nil {
		return nil, "", fmt.Errorf("start nats container: %w", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		if termErr := container.Terminate(ctx); termErr != nil {
			log.Printf("terminate nats container: %v", termErr)
		}
		return nil, "", fmt.Errorf("nats connection string: %w", err)
	}

	log.Printf("nats ready at %s", url)
	return container, url, nil
}
