package ladderrouter

import (
	ladderhandlers "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/handlers"
	"github.com/Black-And-White-Club/acerank/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// HTTPConfig holds the knobs of the REST surface.
type HTTPConfig struct {
	AllowedOrigins []string
	// RequestsPerSecond and Burst size each client IP's token bucket.
	RequestsPerSecond float64
	Burst             int
}

// RegisterHTTPRoutes mounts the ladder API under /api/ladder.
func RegisterHTTPRoutes(r chi.Router, h ladderhandlers.Handlers, tokens jwt.Service, cfg HTTPConfig) {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	limiter := ladderhandlers.NewIPRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	r.Route("/api/ladder", func(r chi.Router) {
		r.Use(ladderhandlers.CORSMiddleware(cfg.AllowedOrigins))
		r.Use(ladderhandlers.RateLimitMiddleware(limiter))
		r.Use(ladderhandlers.BearerAuthMiddleware(tokens))

		r.Route("/players", func(r chi.Router) {
			r.With(ladderhandlers.RequireRole(jwt.RoleAdmin)).Post("/", h.HandleRegisterPlayer)
			r.Get("/{id}", h.HandleGetPlayer)
			r.Get("/{id}/history.png", h.HandlePointsHistoryChart)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", h.HandleListChallenges)
			r.Post("/", h.HandleCreateChallenge)
			r.Get("/eligibility/{playerID}", h.HandleEvaluateChallenge)
			r.Post("/{id}/respond", h.HandleRespondToChallenge)
			r.Post("/{id}/match", h.HandleSubmitMatchResult)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/pending", h.HandleListPendingValidations)
			r.Get("/{id}", h.HandleGetMatch)
			r.Post("/{id}/validate", h.HandleValidateMatch)
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/regions", h.HandleListRegions)
			r.Get("/{category}", h.HandleGetRanking)
			r.Get("/{category}/stats", h.HandleGetCategoryStats)
			r.Get("/{category}/export.xlsx", h.HandleExportRanking)
		})
	})
}
