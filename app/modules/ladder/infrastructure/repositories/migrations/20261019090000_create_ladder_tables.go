package laddermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var ladderTablesUp = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS players (
		id                    uuid        PRIMARY KEY DEFAULT gen_random_uuid(),
		name                  text        NOT NULL,
		email                 text        NOT NULL UNIQUE,
		gender                text        NOT NULL CHECK (gender IN ('male', 'female', 'other')),
		region                text        NOT NULL DEFAULT '',
		level                 smallint    NOT NULL CHECK (level BETWEEN 1 AND 4),
		points                integer     NOT NULL DEFAULT 1000 CHECK (points >= 0),
		ranking_general       integer     NOT NULL DEFAULT 0,
		ranking_gender        integer     NOT NULL DEFAULT 0,
		ranking_region        integer     NOT NULL DEFAULT 0,
		ranking_level         integer     NOT NULL DEFAULT 0,
		provisional           boolean     NOT NULL DEFAULT true,
		provisional_matches   integer     NOT NULL DEFAULT 0,
		active_challenges     integer     NOT NULL DEFAULT 0 CHECK (active_challenges >= 0),
		monthly_decline_count integer     NOT NULL DEFAULT 0,
		decline_period        text        NOT NULL DEFAULT '',
		wins                  integer     NOT NULL DEFAULT 0,
		losses                integer     NOT NULL DEFAULT 0,
		win_streak            integer     NOT NULL DEFAULT 0,
		is_active             boolean     NOT NULL DEFAULT true,
		last_activity_at      timestamptz NULL,
		created_at            timestamptz NOT NULL DEFAULT current_timestamp,
		updated_at            timestamptz NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_players_level_points ON players (level, points DESC) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_players_region ON players (region) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id                 uuid        PRIMARY KEY DEFAULT gen_random_uuid(),
		challenger_id      uuid        NOT NULL REFERENCES players (id),
		challenged_id      uuid        NOT NULL REFERENCES players (id),
		status             text        NOT NULL,
		message            text        NOT NULL DEFAULT '',
		proposed_date      timestamptz NULL,
		challenger_ranking integer     NOT NULL DEFAULT 0,
		challenged_ranking integer     NOT NULL DEFAULT 0,
		challenger_points  integer     NOT NULL DEFAULT 0,
		challenged_points  integer     NOT NULL DEFAULT 0,
		expires_at         timestamptz NOT NULL,
		responded_at       timestamptz NULL,
		accepted_at        timestamptz NULL,
		match_deadline     timestamptz NULL,
		created_at         timestamptz NOT NULL,
		updated_at         timestamptz NOT NULL DEFAULT current_timestamp,
		CHECK (challenger_id <> challenged_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_challenger ON challenges (challenger_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_challenged ON challenges (challenged_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_pending_expiry ON challenges (expires_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                  uuid        PRIMARY KEY DEFAULT gen_random_uuid(),
		challenge_id        uuid        NOT NULL UNIQUE REFERENCES challenges (id) ON DELETE CASCADE,
		player1_id          uuid        NOT NULL REFERENCES players (id),
		player2_id          uuid        NOT NULL REFERENCES players (id),
		winner_id           uuid        NOT NULL REFERENCES players (id),
		loser_id            uuid        NOT NULL REFERENCES players (id),
		score               text        NOT NULL,
		sets                jsonb       NULL,
		match_date          timestamptz NOT NULL,
		location            text        NOT NULL DEFAULT '',
		duration_minutes    integer     NOT NULL DEFAULT 0,
		notes               text        NOT NULL DEFAULT '',
		status              text        NOT NULL,
		reported_by         uuid        NOT NULL REFERENCES players (id),
		validation_deadline timestamptz NOT NULL,
		validated_by        uuid        NULL REFERENCES players (id),
		validated_at        timestamptz NULL,
		auto_validated      boolean     NOT NULL DEFAULT false,
		disputed_at         timestamptz NULL,
		dispute_reason      text        NOT NULL DEFAULT '',
		winner_points_delta integer     NOT NULL DEFAULT 0,
		loser_points_delta  integer     NOT NULL DEFAULT 0,
		multiplier          double precision NOT NULL DEFAULT 1,
		ranking_before      jsonb       NULL,
		ranking_after       jsonb       NULL,
		created_at          timestamptz NOT NULL,
		updated_at          timestamptz NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_pending_deadline ON matches (validation_deadline) WHERE status = 'pending_validation'`,
	`CREATE INDEX IF NOT EXISTS idx_matches_loser_pending ON matches (loser_id) WHERE status = 'pending_validation'`,
}

var ladderTablesDown = []string{
	`DROP TABLE IF EXISTS matches`,
	`DROP TABLE IF EXISTS challenges`,
	`DROP TABLE IF EXISTS players`,
}

func execAll(ctx context.Context, db *bun.DB, stmts []string) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating players, challenges and matches tables...")
		if err := execAll(ctx, db, ladderTablesUp); err != nil {
			return fmt.Errorf("failed to create ladder tables: %w", err)
		}
		fmt.Println("Ladder tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ladder tables...")
		if err := execAll(ctx, db, ladderTablesDown); err != nil {
			return fmt.Errorf("failed to drop ladder tables: %w", err)
		}
		fmt.Println("Ladder tables dropped successfully!")
		return nil
	})
}
