package ladderhandlers

import (
	"context"
	"net/http"

	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/handlerwrapper"
)

// Handlers defines the ladder's HTTP and event handlers.
type Handlers interface {
	// --- Players ---
	HandleRegisterPlayer(w http.ResponseWriter, r *http.Request)
	HandleGetPlayer(w http.ResponseWriter, r *http.Request)
	HandlePointsHistoryChart(w http.ResponseWriter, r *http.Request)

	// --- Challenges ---
	HandleEvaluateChallenge(w http.ResponseWriter, r *http.Request)
	HandleCreateChallenge(w http.ResponseWriter, r *http.Request)
	HandleListChallenges(w http.ResponseWriter, r *http.Request)
	HandleRespondToChallenge(w http.ResponseWriter, r *http.Request)

	// --- Matches ---
	HandleSubmitMatchResult(w http.ResponseWriter, r *http.Request)
	HandleListPendingValidations(w http.ResponseWriter, r *http.Request)
	HandleGetMatch(w http.ResponseWriter, r *http.Request)
	HandleValidateMatch(w http.ResponseWriter, r *http.Request)

	// --- Rankings ---
	HandleGetRanking(w http.ResponseWriter, r *http.Request)
	HandleGetCategoryStats(w http.ResponseWriter, r *http.Request)
	HandleListRegions(w http.ResponseWriter, r *http.Request)
	HandleExportRanking(w http.ResponseWriter, r *http.Request)

	// --- Events ---

	// HandleRankingsRecomputeRequested rebuilds the ranking caches on request.
	HandleRankingsRecomputeRequested(ctx context.Context, payload *ladderevents.RankingsRecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
