package containers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresImage = "postgres:16-alpine"

type pgCredentials struct {
	database, user, password string
}

func (c pgCredentials) dsn(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.user, c.password, host, port.Port(), c.database)
}

// SetupPostgresContainer starts an empty Postgres database for the ladder
// and River schemas and returns the container with a pgx-compatible DSN.
func SetupPostgresContainer(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	creds := pgCredentials{database: "acerank", user: "acerank", password: "acerank"}

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(creds.database),
		postgres.WithUsername(creds.user),
		postgres.WithPassword(creds.password),
		// bun, River and the per-test pgx pools share one server.
		testcontainers.WithCmdArgs("-c", "max_connections=200"),
		testcontainers.WithWaitStrategy(
			wait.ForSQL("5432/tcp", "pgx", creds.dsn).WithStartupTimeout(45*time.Second),
		),
	)
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return nil, "", fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("postgres connection string: %w", err)
	}

	log.Printf("postgres ready (%s)", postgresImage)
	return container, dsn, nil
}
