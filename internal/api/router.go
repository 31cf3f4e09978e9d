package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/stefanbaur/errsight/internal/api/middleware"
	"github.com/stefanbaur/errsight/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	UploadHandler http.HandlerFunc

	ErrorSummary   http.HandlerFunc
	ErrorList      http.HandlerFunc
	ErrorTimeline  http.HandlerFunc
	ErrorTypes     http.HandlerFunc
	UserActivity   http.HandlerFunc
	CriticalErrors http.HandlerFunc

	UserRiskScores       http.HandlerFunc
	SimilarErrors        http.HandlerFunc
	AutoCategorize       http.HandlerFunc
	RootCauseSuggestions http.HandlerFunc
	RiskHeatmap          http.HandlerFunc
	InsightsSummary      http.HandlerFunc

	UploadHistory http.HandlerFunc
	UploadDetail  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Rate-limited routes
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/upload", orNotImplemented(deps.UploadHandler))

		r.Get("/api/v1/errors", orNotImplemented(deps.ErrorList))
		r.Get("/api/v1/errors/summary", orNotImplemented(deps.ErrorSummary))
		r.Get("/api/v1/errors/timeline", orNotImplemented(deps.ErrorTimeline))
		r.Get("/api/v1/errors/types", orNotImplemented(deps.ErrorTypes))
		r.Get("/api/v1/errors/users", orNotImplemented(deps.UserActivity))
		r.Get("/api/v1/errors/critical", orNotImplemented(deps.CriticalErrors))

		r.Get("/api/v1/ml/user-risk-scores", orNotImplemented(deps.UserRiskScores))
		r.Get("/api/v1/ml/similar-errors/{errorID}", orNotImplemented(deps.SimilarErrors))
		r.Get("/api/v1/ml/auto-categorize", orNotImplemented(deps.AutoCategorize))
		r.Get("/api/v1/ml/root-cause-suggestions", orNotImplemented(deps.RootCauseSuggestions))
		r.Get("/api/v1/ml/user-risk-heatmap", orNotImplemented(deps.RiskHeatmap))
		r.Get("/api/v1/ml/insights-summary", orNotImplemented(deps.InsightsSummary))

		r.Get("/api/v1/uploads", orNotImplemented(deps.UploadHistory))
		r.Get("/api/v1/uploads/{batchID}", orNotImplemented(deps.UploadDetail))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
