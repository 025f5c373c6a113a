package ladderservice

import (
	"context"
	"testing"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// mixedLadder seeds players across genders, regions and levels.
func mixedLadder(repo *FakeLadderRepo) map[string]*ladderdb.Player {
	ana := newPlayer("Ana", ladderdomain.LevelAdvanced, 500)
	ana.Gender = ladderdomain.GenderFemale
	ana.Region = "South"

	bia := newPlayer("Bia", ladderdomain.LevelIntermediate, 420)
	bia.Gender = ladderdomain.GenderFemale

	caio := newPlayer("Caio", ladderdomain.LevelAdvanced, 450)
	caio.Region = "South"

	davi := newPlayer("Davi", ladderdomain.LevelIntermediate, 420)
	davi.Wins = 4

	eva := newPlayer("Eva", ladderdomain.LevelIntermediate, 900)
	eva.Gender = ladderdomain.GenderFemale
	eva.IsActive = false

	players := map[string]*ladderdb.Player{"ana": ana, "bia": bia, "caio": caio, "davi": davi, "eva": eva}
	for _, p := range players {
		repo.AddPlayer(p)
	}
	return players
}

func TestLadderService_RecomputeRankings(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})
	p := mixedLadder(repo)

	require.NoError(t, s.RecomputeRankings(context.Background()))

	want := map[string]ladderdomain.Ranks{
		"ana":  {General: 1, Gender: 1, Region: 1, Level: 1},
		"caio": {General: 2, Gender: 1, Region: 2, Level: 2},
		"davi": {General: 3, Gender: 2, Region: 1, Level: 1},
		"bia":  {General: 4, Gender: 2, Region: 2, Level: 2},
		"eva":  {},
	}
	for name, ranks := range want {
		stored := repo.Player(p[name].ID)
		assert.Equal(t, ranks, stored.Ranks(), name)
	}

	before := ranksOf(repo, p)
	require.NoError(t, s.RecomputeRankings(context.Background()))
	assert.Equal(t, before, ranksOf(repo, p), "recompute is idempotent")
}

func ranksOf(repo *FakeLadderRepo, players map[string]*ladderdb.Player) map[string]ladderdomain.Ranks {
	out := map[string]ladderdomain.Ranks{}
	for name, p := range players {
		stored := repo.Player(p.ID)
		out[name] = stored.Ranks()
	}
	return out
}

func TestLadderService_RecomputeRankings_WritesOnlyChangedRows(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})
	mixedLadder(repo)
	require.NoError(t, s.RecomputeRankings(context.Background()))

	var written map[uuid.UUID]ladderdomain.Ranks
	repo.UpdateRanksFunc = func(ctx context.Context, db bun.IDB, ranks map[uuid.UUID]ladderdomain.Ranks) error {
		written = ranks
		return nil
	}
	require.NoError(t, s.RecomputeRankings(context.Background()))
	assert.Empty(t, written)
}

func TestLadderService_GetRanking(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})
	mixedLadder(repo)
	require.NoError(t, s.RecomputeRankings(context.Background()))

	tests := []struct {
		name      string
		category  ladderdomain.Category
		limit     int
		offset    int
		wantNames []string
		wantTotal int
		wantLimit int
	}{
		{name: "overall", category: ladderdomain.OverallCategory{}, wantNames: []string{"Ana", "Caio", "Davi", "Bia"}, wantTotal: 4, wantLimit: DefaultRankingPageSize},
		{name: "female", category: ladderdomain.GenderCategory{Gender: ladderdomain.GenderFemale}, wantNames: []string{"Ana", "Bia"}, wantTotal: 2, wantLimit: DefaultRankingPageSize},
		{name: "region", category: ladderdomain.RegionCategory{Region: "South"}, wantNames: []string{"Ana", "Caio"}, wantTotal: 2, wantLimit: DefaultRankingPageSize},
		{name: "level", category: ladderdomain.LevelCategory{Level: ladderdomain.LevelIntermediate}, wantNames: []string{"Davi", "Bia"}, wantTotal: 2, wantLimit: DefaultRankingPageSize},
		{name: "paged", category: ladderdomain.OverallCategory{}, limit: 2, offset: 1, wantNames: []string{"Caio", "Davi"}, wantTotal: 4, wantLimit: 2},
		{name: "limit is clamped", category: ladderdomain.OverallCategory{}, limit: 10_000, wantNames: []string{"Ana", "Caio", "Davi", "Bia"}, wantTotal: 4, wantLimit: MaxRankingPageSize},
		{name: "empty region", category: ladderdomain.RegionCategory{Region: "West"}, wantNames: nil, wantTotal: 0, wantLimit: DefaultRankingPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.GetRanking(context.Background(), tt.category, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Equal(t, tt.category.Kind(), page.Category)

			var names []string
			for i, e := range page.Entries {
				names = append(names, e.Player.Name)
				assert.Equal(t, tt.offset+i+1, e.Position)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	_, err := s.GetRanking(context.Background(), nil, 0, 0)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestLadderService_GetCategoryStats(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})
	mixedLadder(repo)

	stats, err := s.GetCategoryStats(context.Background(), ladderdomain.GenderCategory{Gender: ladderdomain.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPlayers, "inactive players are not counted")
	assert.InDelta(t, 460.0, stats.AveragePoints, 0.001)
	require.NotNil(t, stats.TopPlayer)
	assert.Equal(t, "Ana", stats.TopPlayer.Name)

	empty, err := s.GetCategoryStats(context.Background(), ladderdomain.RegionCategory{Region: "Nowhere"})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPlayers)
	assert.Nil(t, empty.TopPlayer)
}

func TestLadderService_ListRegions(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})

	regions, err := s.ListRegions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, regions)
	assert.Empty(t, regions)

	mixedLadder(repo)
	regions, err = s.ListRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, regions)
}

func TestLadderService_RegisterPlayer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		req    RegisterPlayerRequest
		verify func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo)
	}{
		{
			name: "new player starts provisional with the starting balance",
			req:  RegisterPlayerRequest{Name: " Rafa ", Email: "Rafa@Example.com", Gender: ladderdomain.GenderMale, Region: "North", Level: ladderdomain.LevelAdvanced},
			verify: func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo) {
				require.NoError(t, err)
				assert.Equal(t, "Rafa", view.Name)
				assert.Equal(t, ladderdomain.StartingPoints, view.Points)
				assert.True(t, view.Provisional)
				assert.Equal(t, ladderdomain.ProvisionalMatchesRequired, view.ProvisionalRemaining)
				assert.Equal(t, "advanced", view.LevelName)
				assert.Equal(t, 1, view.Rankings.General, "starting balance tops a ladder of 500 points")
				assert.Equal(t, 1, view.Rankings.Level)

				stored := repo.Player(view.ID)
				assert.Equal(t, "rafa@example.com", stored.Email)
				assert.Equal(t, 1, stored.RankingGeneral)
			},
		},
		{
			name: "duplicate email",
			req:  RegisterPlayerRequest{Name: "Ana Clone", Email: "ana@example.com", Gender: ladderdomain.GenderFemale, Level: ladderdomain.LevelBeginner},
			verify: func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "email", vErr.Field)
			},
		},
		{
			name: "invalid email",
			req:  RegisterPlayerRequest{Name: "X", Email: "not-an-email", Gender: ladderdomain.GenderMale, Level: ladderdomain.LevelBeginner},
			verify: func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "email", vErr.Field)
				assert.Empty(t, repo.Trace())
			},
		},
		{
			name: "invalid level",
			req:  RegisterPlayerRequest{Name: "X", Email: "x@example.com", Gender: ladderdomain.GenderMale, Level: 9},
			verify: func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "level", vErr.Field)
			},
		},
		{
			name: "invalid gender",
			req:  RegisterPlayerRequest{Name: "X", Email: "x@example.com", Gender: "robot", Level: ladderdomain.LevelBeginner},
			verify: func(t *testing.T, view *PlayerView, err error, repo *FakeLadderRepo) {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "gender", vErr.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLadderRepo()
			s, _ := newTestService(repo, &FakeNotifier{})
			mixedLadder(repo)
			view, err := s.RegisterPlayer(ctx, tt.req)
			tt.verify(t, view, err, repo)
		})
	}
}

func TestLadderService_GetPlayer(t *testing.T) {
	repo := NewFakeLadderRepo()
	s, _ := newTestService(repo, &FakeNotifier{})
	p := newPlayer("Gui", ladderdomain.LevelBeginner, 80)
	p.MonthlyDeclineCount = 2
	p.DeclinePeriod = "2026-09"
	repo.AddPlayer(p)

	view, err := s.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Zero(t, view.DeclinesThisMonth, "last month's declines read as zero")
	assert.Zero(t, view.ProvisionalRemaining)

	_, err = s.GetPlayer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
