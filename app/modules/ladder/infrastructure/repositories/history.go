package ladderdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) AppendPointHistory(ctx context.Context, db bun.IDB, entries ...*PointHistory) error {
	if len(entries) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(&entries).Exec(ctx); err != nil {
		return fmt.Errorf("ladderdb.AppendPointHistory: %w", err)
	}
	return nil
}

func (r *Impl) ListPointHistory(ctx context.Context, db bun.IDB, playerID uuid.UUID) ([]*PointHistory, error) {
	db = r.resolveDB(db)
	var entries []*PointHistory
	err := db.NewSelect().
		Model(&entries).
		Where("ph.player_id = ?", playerID).
		Order("ph.created_at ASC", "ph.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListPointHistory: %w", err)
	}
	return entries, nil
}
