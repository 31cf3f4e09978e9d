package handler

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/stefanbaur/errsight/internal/analytics"
	"github.com/stefanbaur/errsight/internal/api/response"
	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/pkg/models"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
	heatmapInsightLimit = 2
	topInsightItems     = 3
)

// NewUserRiskScoresHandler returns GET /api/v1/ml/user-risk-scores.
func NewUserRiskScoresHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}
		response.JSON(w, e.UserRiskScores(records))
	}
}

// NewSimilarErrorsHandler returns GET /api/v1/ml/similar-errors/{errorID}.
func NewSimilarErrorsHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errorID, err := strconv.Atoi(chi.URLParam(r, "errorID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"errorID must be an integer", nil)
			return
		}

		limit := queryInt(r, "limit", defaultSimilarLimit)
		if limit < 1 {
			limit = defaultSimilarLimit
		}
		if limit > maxSimilarLimit {
			limit = maxSimilarLimit
		}

		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}

		var target *models.ErrorRecord
		for i := range records {
			if records[i].ID == errorID {
				target = &records[i]
				break
			}
		}
		if target == nil {
			response.Error(w, http.StatusNotFound, "NOT_FOUND",
				"Target error not found", nil)
			return
		}

		response.JSON(w, e.SimilarErrors(*target, records, limit))
	}
}

// NewAutoCategorizeHandler returns GET /api/v1/ml/auto-categorize.
func NewAutoCategorizeHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}
		response.JSON(w, e.Categorize(records))
	}
}

// NewRootCauseHandler returns GET /api/v1/ml/root-cause-suggestions.
func NewRootCauseHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}
		response.JSON(w, e.RootCauseCorrelations(records))
	}
}

// heatmapEntry trims a risk profile down to what the heatmap widget renders.
type heatmapEntry struct {
	User           string   `json:"user"`
	RiskScore      float64  `json:"risk_score"`
	Category       string   `json:"category"`
	Color          string   `json:"color"`
	TotalErrors    int      `json:"total_errors"`
	CriticalErrors int      `json:"critical_errors"`
	Insights       []string `json:"insights"`
}

type riskDistribution struct {
	HighRisk    int `json:"high_risk"`
	MediumRisk  int `json:"medium_risk"`
	LowRisk     int `json:"low_risk"`
	MinimalRisk int `json:"minimal_risk"`
}

type heatmapResponse struct {
	HeatmapData      []heatmapEntry   `json:"heatmap_data"`
	RiskDistribution riskDistribution `json:"risk_distribution"`
	TotalUsers       int              `json:"total_users"`
}

// NewRiskHeatmapHandler returns GET /api/v1/ml/user-risk-heatmap: risk
// profiles condensed for the heatmap plus score-bucket counts.
func NewRiskHeatmapHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}

		profiles := e.UserRiskScores(records)
		entries := make([]heatmapEntry, 0, len(profiles))
		var dist riskDistribution

		for _, p := range profiles {
			insights := p.Insights
			if len(insights) > heatmapInsightLimit {
				insights = insights[:heatmapInsightLimit]
			}
			entries = append(entries, heatmapEntry{
				User:           p.User,
				RiskScore:      p.RiskScore,
				Category:       p.Category,
				Color:          p.Color,
				TotalErrors:    p.TotalErrors,
				CriticalErrors: p.CriticalErrors,
				Insights:       insights,
			})

			switch {
			case p.RiskScore >= 7.5:
				dist.HighRisk++
			case p.RiskScore >= 5.0:
				dist.MediumRisk++
			case p.RiskScore >= 2.5:
				dist.LowRisk++
			default:
				dist.MinimalRisk++
			}
		}

		response.JSON(w, heatmapResponse{
			HeatmapData:      entries,
			RiskDistribution: dist,
			TotalUsers:       len(entries),
		})
	}
}

type insightsSummary struct {
	TotalUsersAnalyzed        int                         `json:"total_users_analyzed"`
	HighRiskUsers             int                         `json:"high_risk_users"`
	RiskPercentage            float64                     `json:"risk_percentage"`
	TotalCategoriesFound      int                         `json:"total_categories_found"`
	OutlierErrors             int                         `json:"outlier_errors"`
	TopCorrelations           []models.Correlation        `json:"top_correlations"`
	CategorizationSuggestions []models.CategorySuggestion `json:"categorization_suggestions"`
	InsightsGenerated         int                         `json:"insights_generated"`
}

// NewInsightsSummaryHandler returns GET /api/v1/ml/insights-summary. The
// three analyses are independent, so they run concurrently over the same
// record snapshot.
func NewInsightsSummaryHandler(c cache.Cache, e *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := requireRecords(w, r, c)
		if !ok {
			return
		}

		var (
			wg             sync.WaitGroup
			profiles       []models.UserRiskProfile
			categorization models.CategorizationResult
			correlations   []models.Correlation
		)
		wg.Add(3)
		go func() {
			defer wg.Done()
			profiles = e.UserRiskScores(records)
		}()
		go func() {
			defer wg.Done()
			categorization = e.Categorize(records)
		}()
		go func() {
			defer wg.Done()
			correlations = e.RootCauseCorrelations(records)
		}()
		wg.Wait()

		highRisk := 0
		for _, p := range profiles {
			if p.RiskScore >= 7.5 {
				highRisk++
			}
		}

		riskPct := 0.0
		if len(profiles) > 0 {
			riskPct = math.Round(float64(highRisk)/float64(len(profiles))*1000) / 10
		}

		topCorrelations := correlations
		if len(topCorrelations) > topInsightItems {
			topCorrelations = topCorrelations[:topInsightItems]
		}
		suggestions := categorization.Suggestions
		if len(suggestions) > topInsightItems {
			suggestions = suggestions[:topInsightItems]
		}
		if topCorrelations == nil {
			topCorrelations = []models.Correlation{}
		}
		if suggestions == nil {
			suggestions = []models.CategorySuggestion{}
		}

		response.JSON(w, insightsSummary{
			TotalUsersAnalyzed:        len(profiles),
			HighRiskUsers:             highRisk,
			RiskPercentage:            riskPct,
			TotalCategoriesFound:      categorization.TotalClusters,
			OutlierErrors:             categorization.Outliers,
			TopCorrelations:           topCorrelations,
			CategorizationSuggestions: suggestions,
			InsightsGenerated:         len(correlations) + len(categorization.Suggestions),
		})
	}
}
