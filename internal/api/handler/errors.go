package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stefanbaur/errsight/internal/api/response"
	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/pkg/models"
)

const defaultErrorPageSize = 100

func emptyChart() models.ChartData {
	return models.ChartData{Labels: []string{}, Data: []int{}}
}

// NewErrorSummaryHandler returns GET /api/v1/errors/summary. A cold cache
// yields the zero summary rather than an error.
func NewErrorSummaryHandler(c cache.Cache) http.HandlerFunc {
	return cachedAggregate(c, cache.SummaryKey, func() models.ErrorSummary {
		return models.ErrorSummary{}
	})
}

// NewErrorTypesHandler returns GET /api/v1/errors/types.
func NewErrorTypesHandler(c cache.Cache) http.HandlerFunc {
	return cachedAggregate(c, cache.TypesKey, emptyChart)
}

// NewUserActivityHandler returns GET /api/v1/errors/users.
func NewUserActivityHandler(c cache.Cache) http.HandlerFunc {
	return cachedAggregate(c, cache.UserActivityKey, emptyChart)
}

// NewErrorTimelineHandler returns GET /api/v1/errors/timeline.
func NewErrorTimelineHandler(c cache.Cache) http.HandlerFunc {
	return cachedAggregate(c, cache.TimelineKey, emptyChart)
}

// NewCriticalErrorsHandler returns GET /api/v1/errors/critical.
func NewCriticalErrorsHandler(c cache.Cache) http.HandlerFunc {
	return cachedAggregate(c, cache.CriticalKey, func() criticalPayload {
		return criticalPayload{CriticalErrors: []models.ErrorRecord{}}
	})
}

// NewErrorListHandler returns GET /api/v1/errors with page/limit pagination
// over the cached record set.
func NewErrorListHandler(c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pageParams(r, defaultErrorPageSize)

		records, _, err := loadRecords(r, c)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to read analyzed errors", nil)
			return
		}
		if records == nil {
			records = []models.ErrorRecord{}
		}

		start := (page - 1) * limit
		end := start + limit
		if start > len(records) {
			start = len(records)
		}
		if end > len(records) {
			end = len(records)
		}

		response.Collection(w, records[start:end], response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   len(records),
			HasNext: end < len(records),
		})
	}
}

// cachedAggregate serves a typed aggregate from the cache, using the empty
// value when the cache is cold.
func cachedAggregate[T any](c cache.Cache, key string, empty func() T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := empty()
		raw, found, err := c.Get(r.Context(), key)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to read cached data", nil)
			return
		}
		if found {
			if err := json.Unmarshal(raw, &value); err != nil {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Cached data is corrupted", nil)
				return
			}
		}
		response.JSON(w, value)
	}
}
