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

func (r *Impl) GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().
		Model(player).
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ladderdb.GetPlayer: %w", err)
	}
	return player, nil
}

func (r *Impl) GetPlayersForUpdate(ctx context.Context, db bun.IDB, ids ...uuid.UUID) (map[uuid.UUID]*Player, error) {
	db = r.resolveDB(db)
	var players []*Player
	err := db.NewSelect().
		Model(&players).
		Where("p.id IN (?)", bun.In(ids)).
		Order("p.id ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.GetPlayersForUpdate: %w", err)
	}

	byID := make(map[uuid.UUID]*Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, ErrNotFound
		}
	}
	return byID, nil
}

func (r *Impl) CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	_, err := db.NewInsert().Model(player).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("ladderdb.CreatePlayer: %w", err)
	}
	return nil
}

func (r *Impl) ListPlayers(ctx context.Context, db bun.IDB) ([]*Player, error) {
	db = r.resolveDB(db)
	var players []*Player
	if err := db.NewSelect().Model(&players).Order("p.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("ladderdb.ListPlayers: %w", err)
	}
	return players, nil
}

func (r *Impl) ListActiveAtLevel(ctx context.Context, db bun.IDB, level ladderdomain.Level) ([]*Player, error) {
	db = r.resolveDB(db)
	var players []*Player
	err := db.NewSelect().
		Model(&players).
		Where("p.is_active = ?", true).
		Where("p.level = ?", level).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListActiveAtLevel: %w", err)
	}
	return players, nil
}

func (r *Impl) SavePlayerState(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	player.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(player).
		Column(
			"points",
			"provisional",
			"provisional_matches",
			"active_challenges",
			"monthly_decline_count",
			"decline_period",
			"wins",
			"losses",
			"win_streak",
			"last_activity_at",
			"updated_at",
		).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.SavePlayerState: %w", err)
	}
	return requireRows(result, "ladderdb.SavePlayerState")
}

func (r *Impl) AdjustActiveChallenges(ctx context.Context, db bun.IDB, id uuid.UUID, delta int) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("active_challenges = GREATEST(active_challenges + ?, 0)", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("p.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.AdjustActiveChallenges: %w", err)
	}
	return requireRows(result, "ladderdb.AdjustActiveChallenges")
}

type rankRow struct {
	bun.BaseModel `bun:"table:rank_rows"`

	ID             uuid.UUID `bun:"id,type:uuid"`
	RankingGeneral int       `bun:"ranking_general"`
	RankingGender  int       `bun:"ranking_gender"`
	RankingRegion  int       `bun:"ranking_region"`
	RankingLevel   int       `bun:"ranking_level"`
}

func (r *Impl) UpdateRanks(ctx context.Context, db bun.IDB, ranks map[uuid.UUID]ladderdomain.Ranks) error {
	if len(ranks) == 0 {
		return nil
	}
	db = r.resolveDB(db)

	rows := make([]rankRow, 0, len(ranks))
	for id, rk := range ranks {
		rows = append(rows, rankRow{
			ID:             id,
			RankingGeneral: rk.General,
			RankingGender:  rk.Gender,
			RankingRegion:  rk.Region,
			RankingLevel:   rk.Level,
		})
	}

	_, err := db.NewUpdate().
		With("_data", db.NewValues(&rows)).
		Model((*Player)(nil)).
		TableExpr("_data").
		Set("ranking_general = _data.ranking_general").
		Set("ranking_gender = _data.ranking_gender").
		Set("ranking_region = _data.ranking_region").
		Set("ranking_level = _data.ranking_level").
		Where("p.id = _data.id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.UpdateRanks: %w", err)
	}
	return nil
}

// rankColumn is the cache column ordering a category kind.
func rankColumn(kind ladderdomain.CategoryKind) string {
	switch kind {
	case ladderdomain.KindGender:
		return "p.ranking_gender"
	case ladderdomain.KindRegion:
		return "p.ranking_region"
	case ladderdomain.KindLevel:
		return "p.ranking_level"
	default:
		return "p.ranking_general"
	}
}

// inCategory restricts a player query to a category's active cohort.
func inCategory(q *bun.SelectQuery, c ladderdomain.Category) *bun.SelectQuery {
	q = q.Where("p.is_active = ?", true)
	switch c := c.(type) {
	case ladderdomain.GenderCategory:
		q = q.Where("p.gender = ?", c.Gender)
	case ladderdomain.RegionCategory:
		q = q.Where("TRIM(p.region) = ?", c.Region)
	case ladderdomain.LevelCategory:
		q = q.Where("p.level = ?", c.Level)
	}
	return q
}

func (r *Impl) ListRanking(ctx context.Context, db bun.IDB, category ladderdomain.Category, limit, offset int) ([]*Player, int, error) {
	db = r.resolveDB(db)
	var players []*Player
	q := inCategory(db.NewSelect().Model(&players), category).
		OrderExpr(rankColumn(category.Kind())+" ASC").
		Order("p.points DESC", "p.name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ladderdb.ListRanking: %w", err)
	}
	return players, total, nil
}

func (r *Impl) CategoryStats(ctx context.Context, db bun.IDB, category ladderdomain.Category) (*CategoryStats, error) {
	db = r.resolveDB(db)
	stats := new(CategoryStats)
	err := inCategory(db.NewSelect().Model((*Player)(nil)), category).
		ColumnExpr("COUNT(*) AS total_players").
		ColumnExpr("COALESCE(AVG(p.points), 0)::float8 AS average_points").
		Scan(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.CategoryStats: %w", err)
	}
	if stats.TotalPlayers == 0 {
		return stats, nil
	}

	top := new(Player)
	err = inCategory(db.NewSelect().Model(top), category).
		Order("p.points DESC", "p.wins DESC", "p.name ASC").
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ladderdb.CategoryStats: top player: %w", err)
	}
	if err == nil {
		stats.TopPlayer = top
	}
	return stats, nil
}

func (r *Impl) ListRegions(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var regions []string
	err := db.NewSelect().
		Model((*Player)(nil)).
		ColumnExpr("DISTINCT TRIM(p.region) AS region").
		Where("p.is_active = ?", true).
		Where("TRIM(p.region) <> ''").
		OrderExpr("region ASC").
		Scan(ctx, &regions)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListRegions: %w", err)
	}
	return regions, nil
}

func requireRows(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
