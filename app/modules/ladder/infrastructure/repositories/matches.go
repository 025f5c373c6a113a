package ladderdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) CreateMatch(ctx context.Context, db bun.IDB, match *Match) error {
	db = r.resolveDB(db)
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(match).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("ladderdb.CreateMatch: %w", err)
	}
	return nil
}

func (r *Impl) GetMatch(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error) {
	return r.getMatch(ctx, db, id, false)
}

func (r *Impl) GetMatchForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error) {
	return r.getMatch(ctx, db, id, true)
}

func (r *Impl) getMatch(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Match, error) {
	db = r.resolveDB(db)
	match := new(Match)
	q := db.NewSelect().Model(match).Where("m.id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ladderdb.GetMatch: %w", err)
	}
	return match, nil
}

func (r *Impl) TransitionMatch(ctx context.Context, db bun.IDB, match *Match, from ladderdomain.MatchStatus) error {
	db = r.resolveDB(db)
	match.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(match).
		Column(
			"status",
			"validated_by",
			"validated_at",
			"auto_validated",
			"disputed_at",
			"dispute_reason",
			"updated_at",
		).
		WherePK().
		Where("m.status = ?", from).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.TransitionMatch: %w", err)
	}
	return requireRows(result, "ladderdb.TransitionMatch")
}

func (r *Impl) RecordSettlement(ctx context.Context, db bun.IDB, match *Match) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model(match).
		Column(
			"winner_points_delta",
			"loser_points_delta",
			"multiplier",
			"ranking_before",
			"ranking_after",
		).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.RecordSettlement: %w", err)
	}
	return requireRows(result, "ladderdb.RecordSettlement")
}

func (r *Impl) ListMatchesPastDeadline(ctx context.Context, db bun.IDB, now time.Time) ([]*Match, error) {
	db = r.resolveDB(db)
	var matches []*Match
	err := db.NewSelect().
		Model(&matches).
		Where("m.status = ?", ladderdomain.MatchPendingValidation).
		Where("m.validation_deadline <= ?", now).
		Order("m.validation_deadline ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListMatchesPastDeadline: %w", err)
	}
	return matches, nil
}

func (r *Impl) ListPendingValidationsForLoser(ctx context.Context, db bun.IDB, loserID uuid.UUID) ([]*Match, error) {
	db = r.resolveDB(db)
	var matches []*Match
	err := db.NewSelect().
		Model(&matches).
		Where("m.status = ?", ladderdomain.MatchPendingValidation).
		Where("m.loser_id = ?", loserID).
		Order("m.validation_deadline ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListPendingValidationsForLoser: %w", err)
	}
	return matches, nil
}

func (r *Impl) ListStaleMatches(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*Match, error) {
	db = r.resolveDB(db)
	var matches []*Match
	err := db.NewSelect().
		Model(&matches).
		Where("m.status = ?", ladderdomain.MatchPendingValidation).
		Where("m.created_at < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListStaleMatches: %w", err)
	}
	return matches, nil
}
