package ladderhandlers

import (
	"context"
	"sync"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
)

// ------------------------
// Fake Ladder Service
// ------------------------

type FakeLadderService struct {
	mu    sync.Mutex
	trace []string

	RegisterPlayerFunc         func(ctx context.Context, req ladderservice.RegisterPlayerRequest) (*ladderservice.PlayerView, error)
	GetPlayerFunc              func(ctx context.Context, playerID uuid.UUID) (*ladderservice.PlayerView, error)
	EvaluateChallengeFunc      func(ctx context.Context, challengerID, challengedID uuid.UUID) (*ladderservice.EligibilityView, error)
	CreateChallengeFunc        func(ctx context.Context, req ladderservice.CreateChallengeRequest) (*ladderservice.ChallengeView, error)
	RespondToChallengeFunc     func(ctx context.Context, challengeID, responderID uuid.UUID, action ladderservice.RespondAction) (*ladderservice.RespondResult, error)
	ListChallengesFunc         func(ctx context.Context, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]ladderservice.ChallengeView, error)
	SubmitMatchResultFunc      func(ctx context.Context, req ladderservice.SubmitMatchRequest) (*ladderservice.MatchView, error)
	ValidateMatchFunc          func(ctx context.Context, matchID, loserID uuid.UUID, action ladderservice.ValidateAction, reason string) (*ladderservice.MatchView, error)
	GetMatchFunc               func(ctx context.Context, matchID uuid.UUID) (*ladderservice.MatchView, error)
	ListPendingValidationsFunc func(ctx context.Context, loserID uuid.UUID) ([]ladderservice.MatchView, error)
	SweepExpiredFunc           func(ctx context.Context) (int, error)
	ExpireStaleFunc            func(ctx context.Context) (int, error)
	CleanupOldDataFunc         func(ctx context.Context) (*ladderservice.CleanupReport, error)
	RecomputeRankingsFunc      func(ctx context.Context) error
	GetRankingFunc             func(ctx context.Context, category ladderdomain.Category, limit, offset int) (*ladderservice.RankingPage, error)
	GetCategoryStatsFunc       func(ctx context.Context, category ladderdomain.Category) (*ladderservice.CategoryStatsView, error)
	ListRegionsFunc            func(ctx context.Context) ([]string, error)
	PointsHistoryChartFunc     func(ctx context.Context, playerID uuid.UUID) ([]byte, error)
	ExportRankingXLSXFunc      func(ctx context.Context, category ladderdomain.Category) ([]byte, error)
}

func NewFakeLadderService() *FakeLadderService {
	return &FakeLadderService{trace: []string{}}
}

func (f *FakeLadderService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeLadderService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Service Interface Implementation ---

func (f *FakeLadderService) RegisterPlayer(ctx context.Context, req ladderservice.RegisterPlayerRequest) (*ladderservice.PlayerView, error) {
	f.record("RegisterPlayer")
	if f.RegisterPlayerFunc != nil {
		return f.RegisterPlayerFunc(ctx, req)
	}
	return &ladderservice.PlayerView{}, nil
}

func (f *FakeLadderService) GetPlayer(ctx context.Context, playerID uuid.UUID) (*ladderservice.PlayerView, error) {
	f.record("GetPlayer")
	if f.GetPlayerFunc != nil {
		return f.GetPlayerFunc(ctx, playerID)
	}
	return &ladderservice.PlayerView{ID: playerID}, nil
}

func (f *FakeLadderService) EvaluateChallenge(ctx context.Context, challengerID, challengedID uuid.UUID) (*ladderservice.EligibilityView, error) {
	f.record("EvaluateChallenge")
	if f.EvaluateChallengeFunc != nil {
		return f.EvaluateChallengeFunc(ctx, challengerID, challengedID)
	}
	return &ladderservice.EligibilityView{}, nil
}

func (f *FakeLadderService) CreateChallenge(ctx context.Context, req ladderservice.CreateChallengeRequest) (*ladderservice.ChallengeView, error) {
	f.record("CreateChallenge")
	if f.CreateChallengeFunc != nil {
		return f.CreateChallengeFunc(ctx, req)
	}
	return &ladderservice.ChallengeView{}, nil
}

func (f *FakeLadderService) RespondToChallenge(ctx context.Context, challengeID, responderID uuid.UUID, action ladderservice.RespondAction) (*ladderservice.RespondResult, error) {
	f.record("RespondToChallenge")
	if f.RespondToChallengeFunc != nil {
		return f.RespondToChallengeFunc(ctx, challengeID, responderID, action)
	}
	return &ladderservice.RespondResult{}, nil
}

func (f *FakeLadderService) ListChallenges(ctx context.Context, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]ladderservice.ChallengeView, error) {
	f.record("ListChallenges")
	if f.ListChallengesFunc != nil {
		return f.ListChallengesFunc(ctx, playerID, statuses)
	}
	return nil, nil
}

func (f *FakeLadderService) SubmitMatchResult(ctx context.Context, req ladderservice.SubmitMatchRequest) (*ladderservice.MatchView, error) {
	f.record("SubmitMatchResult")
	if f.SubmitMatchResultFunc != nil {
		return f.SubmitMatchResultFunc(ctx, req)
	}
	return &ladderservice.MatchView{}, nil
}

func (f *FakeLadderService) ValidateMatch(ctx context.Context, matchID, loserID uuid.UUID, action ladderservice.ValidateAction, reason string) (*ladderservice.MatchView, error) {
	f.record("ValidateMatch")
	if f.ValidateMatchFunc != nil {
		return f.ValidateMatchFunc(ctx, matchID, loserID, action, reason)
	}
	return &ladderservice.MatchView{}, nil
}

func (f *FakeLadderService) GetMatch(ctx context.Context, matchID uuid.UUID) (*ladderservice.MatchView, error) {
	f.record("GetMatch")
	if f.GetMatchFunc != nil {
		return f.GetMatchFunc(ctx, matchID)
	}
	return &ladderservice.MatchView{ID: matchID}, nil
}

func (f *FakeLadderService) ListPendingValidations(ctx context.Context, loserID uuid.UUID) ([]ladderservice.MatchView, error) {
	f.record("ListPendingValidations")
	if f.ListPendingValidationsFunc != nil {
		return f.ListPendingValidationsFunc(ctx, loserID)
	}
	return nil, nil
}

func (f *FakeLadderService) SweepExpiredValidations(ctx context.Context) (int, error) {
	f.record("SweepExpiredValidations")
	if f.SweepExpiredFunc != nil {
		return f.SweepExpiredFunc(ctx)
	}
	return 0, nil
}

func (f *FakeLadderService) ExpireStaleChallenges(ctx context.Context) (int, error) {
	f.record("ExpireStaleChallenges")
	if f.ExpireStaleFunc != nil {
		return f.ExpireStaleFunc(ctx)
	}
	return 0, nil
}

func (f *FakeLadderService) CleanupOldData(ctx context.Context) (*ladderservice.CleanupReport, error) {
	f.record("CleanupOldData")
	if f.CleanupOldDataFunc != nil {
		return f.CleanupOldDataFunc(ctx)
	}
	return &ladderservice.CleanupReport{}, nil
}

func (f *FakeLadderService) RecomputeRankings(ctx context.Context) error {
	f.record("RecomputeRankings")
	if f.RecomputeRankingsFunc != nil {
		return f.RecomputeRankingsFunc(ctx)
	}
	return nil
}

func (f *FakeLadderService) GetRanking(ctx context.Context, category ladderdomain.Category, limit, offset int) (*ladderservice.RankingPage, error) {
	f.record("GetRanking")
	if f.GetRankingFunc != nil {
		return f.GetRankingFunc(ctx, category, limit, offset)
	}
	return &ladderservice.RankingPage{}, nil
}

func (f *FakeLadderService) GetCategoryStats(ctx context.Context, category ladderdomain.Category) (*ladderservice.CategoryStatsView, error) {
	f.record("GetCategoryStats")
	if f.GetCategoryStatsFunc != nil {
		return f.GetCategoryStatsFunc(ctx, category)
	}
	return &ladderservice.CategoryStatsView{}, nil
}

func (f *FakeLadderService) ListRegions(ctx context.Context) ([]string, error) {
	f.record("ListRegions")
	if f.ListRegionsFunc != nil {
		return f.ListRegionsFunc(ctx)
	}
	return []string{}, nil
}

func (f *FakeLadderService) PointsHistoryChart(ctx context.Context, playerID uuid.UUID) ([]byte, error) {
	f.record("PointsHistoryChart")
	if f.PointsHistoryChartFunc != nil {
		return f.PointsHistoryChartFunc(ctx, playerID)
	}
	return nil, nil
}

func (f *FakeLadderService) ExportRankingXLSX(ctx context.Context, category ladderdomain.Category) ([]byte, error) {
	f.record("ExportRankingXLSX")
	if f.ExportRankingXLSXFunc != nil {
		return f.ExportRankingXLSXFunc(ctx, category)
	}
	return nil, nil
}

// Ensure the fake actually satisfies the interface
var _ ladderservice.Service = (*FakeLadderService)(nil)
