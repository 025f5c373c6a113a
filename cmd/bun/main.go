package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Black-And-White-Club/acerank/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	laddermigrations "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories/migrations"
)

func main() {
	// Load configuration for database connection ONLY
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, laddermigrations.Migrations)

	cliApp := &cli.App{
		Name:  "bun",
		Usage: "acerank schema management",
		Commands: []*cli.Command{
			newMigrateCommand(migrator),
			newRiverCommand(cfg.Postgres.DSN),
		},
	}

	// flag.Parse consumed -config; hand the rest to cli.
	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

func newMigrateCommand(migrator *migrate.Migrator) *cli.Command {
	// withLock serialises migration runs across concurrent deploys.
	withLock := func(fn func(c *cli.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			if err := migrator.Lock(c.Context); err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
			defer func() {
				if err := migrator.Unlock(c.Context); err != nil {
					log.Printf("failed to release migration lock: %v", err)
				}
			}()
			return fn(c)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "ladder database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply pending migrations",
				Action: withLock(func(c *cli.Context) error {
					group, err := migrator.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("ladder schema is up to date")
						return nil
					}
					fmt.Printf("migrated ladder schema to %s\n", group)
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: withLock(func(c *cli.Context) error {
					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("no migration groups to roll back")
						return nil
					}
					fmt.Printf("rolled back %s\n", group)
					return nil
				}),
			},
			{
				Name:      "create_go",
				Usage:     "create a Go migration",
				ArgsUsage: "<name words...>",
				Action: func(c *cli.Context) error {
					name, err := migrationName(c)
					if err != nil {
						return err
					}
					mf, err := migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations",
				ArgsUsage: "<name words...>",
				Action: func(c *cli.Context) error {
					name, err := migrationName(c)
					if err != nil {
						return err
					}
					files, err := migrator.CreateSQLMigrations(c.Context, name)
					if err != nil {
						return err
					}
					for _, mf := range files {
						fmt.Printf("created migration %s (%s)\n", mf.Name, mf.Path)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migration status",
				Action: func(c *cli.Context) error {
					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("migrations: %s\n", ms)
					fmt.Printf("unapplied:  %s\n", ms.Unapplied())
					fmt.Printf("last group: %s\n", ms.LastGroup())
					return nil
				},
			},
		},
	}
}

func migrationName(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		return "", fmt.Errorf("migration name is required")
	}
	return strings.Join(c.Args().Slice(), "_"), nil
}

// newRiverCommand manages River's own job tables, which the ladder queue needs
// before the server starts.
func newRiverCommand(dsn string) *cli.Command {
	run := func(c *cli.Context, direction rivermigrate.Direction, opts *rivermigrate.MigrateOpts) error {
		pool, err := pgxpool.New(c.Context, dsn)
		if err != nil {
			return fmt.Errorf("failed to create pgx pool: %w", err)
		}
		defer pool.Close()

		migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
		if err != nil {
			return fmt.Errorf("failed to create river migrator: %w", err)
		}

		res, err := migrator.Migrate(c.Context, direction, opts)
		if err != nil {
			return err
		}
		if len(res.Versions) == 0 {
			fmt.Println("river schema already up to date")
		}
		for _, v := range res.Versions {
			fmt.Printf("river migration %s: version %d (%s)\n", direction, v.Version, v.Duration)
		}
		return nil
	}

	return &cli.Command{
		Name:  "river",
		Usage: "river job queue schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending river migrations",
				Action: func(c *cli.Context) error {
					return run(c, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
				},
			},
			{
				Name:  "down",
				Usage: "roll back river migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of versions to roll back"},
				},
				Action: func(c *cli.Context) error {
					return run(c, rivermigrate.DirectionDown, &rivermigrate.MigrateOpts{MaxSteps: c.Int("steps")})
				},
			},
		},
	}
}
