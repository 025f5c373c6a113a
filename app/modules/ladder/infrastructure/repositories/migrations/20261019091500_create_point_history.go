package laddermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating point_history table...")
		err := execAll(ctx, db, []string{
			`CREATE TABLE IF NOT EXISTS point_history (
				id           bigserial   PRIMARY KEY,
				player_id    uuid        NOT NULL REFERENCES players (id) ON DELETE CASCADE,
				delta        integer     NOT NULL,
				balance      integer     NOT NULL,
				reason       text        NOT NULL,
				reference_id uuid        NOT NULL,
				created_at   timestamptz NOT NULL DEFAULT current_timestamp
			)`,
			`CREATE INDEX IF NOT EXISTS idx_point_history_player ON point_history (player_id, created_at)`,
		})
		if err != nil {
			return fmt.Errorf("failed to create point_history table: %w", err)
		}
		fmt.Println("point_history table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping point_history table...")
		if _, err := db.NewRaw("DROP TABLE IF EXISTS point_history").Exec(ctx); err != nil {
			return err
		}
		fmt.Println("point_history table dropped successfully!")
		return nil
	})
}
