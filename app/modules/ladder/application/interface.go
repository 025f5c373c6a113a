package ladderservice

import (
	"context"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
)

// Service is the ladder engine: challenges, results, validation and rankings.
type Service interface {
	// --- Players ---
	RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*PlayerView, error)
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerView, error)

	// --- Challenges ---

	// EvaluateChallenge reports whether challenger may challenge challenged now.
	// A denial is returned as data, not as an error.
	EvaluateChallenge(ctx context.Context, challengerID, challengedID uuid.UUID) (*EligibilityView, error)
	CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*ChallengeView, error)
	RespondToChallenge(ctx context.Context, challengeID, responderID uuid.UUID, action RespondAction) (*RespondResult, error)
	ListChallenges(ctx context.Context, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]ChallengeView, error)

	// --- Matches ---
	SubmitMatchResult(ctx context.Context, req SubmitMatchRequest) (*MatchView, error)
	ValidateMatch(ctx context.Context, matchID, loserID uuid.UUID, action ValidateAction, reason string) (*MatchView, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (*MatchView, error)
	ListPendingValidations(ctx context.Context, loserID uuid.UUID) ([]MatchView, error)

	// --- Sweeps ---

	// SweepExpiredValidations auto-validates every match whose validation
	// window closed and returns how many it settled.
	SweepExpiredValidations(ctx context.Context) (int, error)
	ExpireStaleChallenges(ctx context.Context) (int, error)
	CleanupOldData(ctx context.Context) (*CleanupReport, error)

	// --- Rankings ---
	RecomputeRankings(ctx context.Context) error
	GetRanking(ctx context.Context, category ladderdomain.Category, limit, offset int) (*RankingPage, error)
	GetCategoryStats(ctx context.Context, category ladderdomain.Category) (*CategoryStatsView, error)
	ListRegions(ctx context.Context) ([]string, error)

	// --- Reports ---
	PointsHistoryChart(ctx context.Context, playerID uuid.UUID) ([]byte, error)
	ExportRankingXLSX(ctx context.Context, category ladderdomain.Category) ([]byte, error)
}

// Notifier delivers player notifications. Errors are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, n ladderdomain.Notification) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
