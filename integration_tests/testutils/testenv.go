package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	laddermigrations "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/acerank/integration_tests/containers"
)

// LadderTables lists every table the ladder module writes, children first.
var LadderTables = []string{"point_history", "matches", "challenges", "players"}

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DB            *bun.DB
	DSN           string
	NatsURL       string
	EventBus      eventbus.EventBus
	Logger        *slog.Logger
}

var (
	sharedEnv  *TestEnvironment
	sharedErr  error
	sharedOnce sync.Once
)

// GetOrCreateTestEnv returns the package-wide environment, starting the
// containers on first use. Integration tests are skipped under -short.
func GetOrCreateTestEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	sharedOnce.Do(func() {
		sharedEnv, sharedErr = newTestEnvironment(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("failed to set up integration environment: %v", sharedErr)
	}
	return sharedEnv
}

func newTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if os.Getenv("ACERANK_TEST_VERBOSE") != "" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}

	env := &TestEnvironment{
		Ctx:           ctx,
		PgContainer:   pgContainer,
		NatsContainer: natsContainer,
		DSN:           dsn,
		NatsURL:       natsURL,
		Logger:        logger,
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
	}
	env.DB = bun.NewDB(sqlDB, pgdialect.New())

	if err := runMigrations(ctx, env.DB, dsn); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, natsURL, logger)
	if err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	env.EventBus = bus

	if err := eventbus.InitializeStreams(ctx, bus, logger); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	return env, nil
}

func runMigrations(ctx context.Context, db *bun.DB, dsn string) error {
	migrator := migrate.NewMigrator(db, laddermigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate ladder: %w", err)
	}

	// River owns its own schema; the ladder queue cannot start without it.
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("create pgx pool for river: %w", err)
	}
	defer pool.Close()

	riverMigrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := riverMigrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("migrate river: %w", err)
	}
	return nil
}

// Reset empties every ladder table.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	if err := TruncateTables(env.Ctx, env.DB, LadderTables...); err != nil {
		t.Fatalf("failed to truncate ladder tables: %v", err)
	}
}

// Terminate releases connections and stops the containers.
func (env *TestEnvironment) Terminate() {
	if env.EventBus != nil {
		_ = env.EventBus.Close()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(env.Ctx)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(env.Ctx)
	}
}

// TruncateTables empties the named tables in one statement.
func TruncateTables(ctx context.Context, db bun.IDB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	idents := make([]any, len(tables))
	for i, table := range tables {
		idents[i] = bun.Ident(table)
	}
	_, err := db.NewRaw("TRUNCATE TABLE "+placeholders(len(tables))+" RESTART IDENTITY CASCADE", idents...).Exec(ctx)
	if err != nil {
		return fmt.Errorf("truncate %v: %w", tables, err)
	}
	return nil
}

func placeholders(n int) string {
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}
