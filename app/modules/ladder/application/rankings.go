package ladderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// computeRanks ranks every category kind in parallel. Kinds share no state.
func computeRanks(ctx context.Context, standings []ladderdomain.Standing) (map[uuid.UUID]ladderdomain.Ranks, error) {
	kinds := ladderdomain.CategoryKinds
	perKind := make([]map[uuid.UUID]int, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perKind[i] = ladderdomain.RankKind(kind, standings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKind := make(map[ladderdomain.CategoryKind]map[uuid.UUID]int, len(kinds))
	for i, kind := range kinds {
		byKind[kind] = perKind[i]
	}
	return ladderdomain.MergeRanks(standings, byKind), nil
}

func standingsOf(players []*ladderdb.Player) []ladderdomain.Standing {
	out := make([]ladderdomain.Standing, len(players))
	for i, p := range players {
		out[i] = p.Standing()
	}
	return out
}

// rerank recomputes every player's ranks from their in-memory state, writes
// the rows whose ranks moved and updates the models in place.
func (s *LadderService) rerank(ctx context.Context, db bun.IDB, players []*ladderdb.Player) error {
	start := time.Now()
	ranks, err := computeRanks(ctx, standingsOf(players))
	if err != nil {
		return fmt.Errorf("compute ranks: %w", err)
	}

	changed := make(map[uuid.UUID]ladderdomain.Ranks)
	for _, p := range players {
		r := ranks[p.ID]
		if r != p.Ranks() {
			changed[p.ID] = r
			p.SetRanks(r)
		}
	}
	if err := s.repo.UpdateRanks(ctx, db, changed); err != nil {
		return err
	}

	s.metrics.RecordRankingRecompute(ctx, len(players), time.Since(start))
	s.logger.DebugContext(ctx, "Rankings recomputed",
		attr.Int("players", len(players)),
		attr.Int("changed", len(changed)),
		attr.ExtractCorrelationID(ctx),
	)
	return nil
}

// RecomputeRankings rebuilds every ranking cache from current points.
func (s *LadderService) RecomputeRankings(ctx context.Context) error {
	recomputeTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[int], error) {
		players, err := s.repo.ListPlayers(ctx, db)
		if err != nil {
			return LadderOperationResult[int]{}, err
		}
		if err := s.rerank(ctx, db, players); err != nil {
			return LadderOperationResult[int]{}, err
		}
		return success(len(players))
	}

	_, err := unwrap(withTelemetry(s, ctx, "RecomputeRankings", uuid.Nil, func(ctx context.Context) (LadderOperationResult[int], error) {
		return runInTx(s, ctx, recomputeTx)
	}))
	return err
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultRankingPageSize
	}
	return min(limit, MaxRankingPageSize), max(offset, 0)
}

// rankFor reads the cached ordinal matching a category kind.
func rankFor(kind ladderdomain.CategoryKind, r ladderdomain.Ranks) int {
	switch kind {
	case ladderdomain.KindGender:
		return r.Gender
	case ladderdomain.KindRegion:
		return r.Region
	case ladderdomain.KindLevel:
		return r.Level
	default:
		return r.General
	}
}

func (s *LadderService) GetRanking(ctx context.Context, category ladderdomain.Category, limit, offset int) (*RankingPage, error) {
	if category == nil {
		return nil, invalid("category", "category is required")
	}
	limit, offset = clampPage(limit, offset)

	players, total, err := s.repo.ListRanking(ctx, nil, category, limit, offset)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	page := &RankingPage{
		Category: category.Kind(),
		Value:    category.Value(),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		Entries:  make([]RankingEntry, 0, len(players)),
	}
	for _, p := range players {
		page.Entries = append(page.Entries, RankingEntry{
			Position: rankFor(category.Kind(), p.Ranks()),
			Player:   toPlayerView(p, now),
		})
	}
	return page, nil
}

func (s *LadderService) GetCategoryStats(ctx context.Context, category ladderdomain.Category) (*CategoryStatsView, error) {
	if category == nil {
		return nil, invalid("category", "category is required")
	}
	stats, err := s.repo.CategoryStats(ctx, nil, category)
	if err != nil {
		return nil, err
	}
	view := &CategoryStatsView{
		Category:      category.Kind(),
		Value:         category.Value(),
		TotalPlayers:  stats.TotalPlayers,
		AveragePoints: stats.AveragePoints,
	}
	if stats.TopPlayer != nil {
		top := toPlayerView(stats.TopPlayer, s.clock.Now())
		view.TopPlayer = &top
	}
	return view, nil
}

func (s *LadderService) ListRegions(ctx context.Context) ([]string, error) {
	regions, err := s.repo.ListRegions(ctx, nil)
	if err != nil {
		return nil, err
	}
	if regions == nil {
		regions = []string{}
	}
	return regions, nil
}

func (s *LadderService) GetPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerView, error) {
	p, err := s.repo.GetPlayer(ctx, nil, playerID)
	if err != nil {
		return nil, err
	}
	v := toPlayerView(p, s.clock.Now())
	return &v, nil
}

// RegisterPlayer adds a provisional player with the starting balance and ranks them.
func (s *LadderService) RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*PlayerView, error) {
	registerTx := func(ctx context.Context, db bun.IDB) (LadderOperationResult[PlayerView], error) {
		if err := req.validate(); err != nil {
			return failure[PlayerView](err)
		}

		player := ladderdb.NewPlayer(req.Name, req.Email, req.Gender, req.Region, req.Level)
		now := s.clock.Now()
		player.CreatedAt = now
		player.UpdatedAt = now
		if err := s.repo.CreatePlayer(ctx, db, player); err != nil {
			if errors.Is(err, ladderdb.ErrDuplicate) {
				return failure[PlayerView](invalid("email", "a player with this email already exists"))
			}
			return LadderOperationResult[PlayerView]{}, err
		}

		players, err := s.repo.ListPlayers(ctx, db)
		if err != nil {
			return LadderOperationResult[PlayerView]{}, err
		}
		if err := s.rerank(ctx, db, players); err != nil {
			return LadderOperationResult[PlayerView]{}, err
		}
		for _, p := range players {
			if p.ID == player.ID {
				player = p
			}
		}
		return success(toPlayerView(player, now))
	}

	return unwrap(withTelemetry(s, ctx, "RegisterPlayer", uuid.Nil, func(ctx context.Context) (LadderOperationResult[PlayerView], error) {
		return runInTx(s, ctx, registerTx)
	}))
}
