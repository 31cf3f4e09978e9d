// Package handler implements the HTTP handlers for the error analytics API.
// Handlers read the active record set from the cache, run the analytics
// engine over it, and write responses in the standard envelope.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stefanbaur/errsight/internal/api/response"
	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/pkg/models"
)

// loadRecords fetches and decodes the cached record set. ok is false when
// the cache is cold or the record set is empty.
func loadRecords(r *http.Request, c cache.Cache) ([]models.ErrorRecord, bool, error) {
	raw, found, err := c.Get(r.Context(), cache.RecordsKey)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var records []models.ErrorRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, err
	}
	return records, len(records) > 0, nil
}

// requireRecords is loadRecords plus the shared error responses: 500 on a
// cache failure, 404 NO_DATA when no upload has been analyzed yet.
func requireRecords(w http.ResponseWriter, r *http.Request, c cache.Cache) ([]models.ErrorRecord, bool) {
	records, ok, err := loadRecords(r, c)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to read analyzed errors", nil)
		return nil, false
	}
	if !ok {
		response.Error(w, http.StatusNotFound, "NO_DATA",
			"No error data found. Upload log files first.", nil)
		return nil, false
	}
	return records, true
}

// pageParams parses page/limit query parameters with the given default
// limit, clamping limit to [1,500] and page to >= 1.
func pageParams(r *http.Request, defaultLimit int) (page, limit int) {
	page = queryInt(r, "page", 1)
	limit = queryInt(r, "limit", defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 500 {
		limit = 500
	}
	return page, limit
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
