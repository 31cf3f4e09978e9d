package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/pkg/models"
)

func seedAggregate(t *testing.T, c *memCache, key string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	c.data[key] = b
}

func testRecords(n int) []models.ErrorRecord {
	records := make([]models.ErrorRecord, n)
	for i := range records {
		records[i] = models.ErrorRecord{
			ID:        i + 1,
			Filename:  "E_20241202_GAM.LOG",
			User:      "GAM",
			Timestamp: "02.12.2024 10:00:00",
			Type:      "DATA TYPE ERROR",
			Code:      33,
			Severity:  models.SeverityHigh,
			Content:   "data type error in field",
		}
	}
	return records
}

func TestErrorSummary_Cached(t *testing.T) {
	c := newMemCache()
	seedAggregate(t, c, cache.SummaryKey, models.ErrorSummary{
		TotalErrors: 14, CriticalErrors: 3, ActiveUsers: 2, FilesAnalyzed: 2,
	})

	h := NewErrorSummaryHandler(c)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseData(t, rec)
	if data["total_errors"].(float64) != 14 {
		t.Errorf("unexpected total_errors: %v", data["total_errors"])
	}
	if data["critical_errors"].(float64) != 3 {
		t.Errorf("unexpected critical_errors: %v", data["critical_errors"])
	}
}

func TestErrorSummary_ColdCache(t *testing.T) {
	h := NewErrorSummaryHandler(newMemCache())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseData(t, rec)
	for _, field := range []string{"total_errors", "critical_errors", "active_users", "files_analyzed"} {
		if data[field].(float64) != 0 {
			t.Errorf("expected zero %s, got %v", field, data[field])
		}
	}
}

func TestErrorTypes_ColdCacheEmptyArrays(t *testing.T) {
	h := NewErrorTypesHandler(newMemCache())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors/types", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseData(t, rec)
	labels, ok := data["labels"].([]any)
	if !ok || len(labels) != 0 {
		t.Errorf("expected empty labels array, got %v", data["labels"])
	}
}

func TestErrorTimeline_Cached(t *testing.T) {
	c := newMemCache()
	seedAggregate(t, c, cache.TimelineKey, models.ChartData{
		Labels: []string{"2024-12-01", "2024-12-02"},
		Data:   []int{5, 9},
	})

	h := NewErrorTimelineHandler(c)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors/timeline", nil))

	data := parseData(t, rec)
	labels := data["labels"].([]any)
	if len(labels) != 2 || labels[0] != "2024-12-01" {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestCriticalErrors_ColdCache(t *testing.T) {
	h := NewCriticalErrorsHandler(newMemCache())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors/critical", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseData(t, rec)
	list, ok := data["critical_errors"].([]any)
	if !ok || len(list) != 0 {
		t.Errorf("expected empty critical_errors array, got %v", data["critical_errors"])
	}
}

func TestErrorList_Paginates(t *testing.T) {
	c := newMemCache()
	seedRecords(t, c, testRecords(25))

	h := NewErrorListHandler(c)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors?page=2&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, meta := parseCollection(t, rec)
	if len(data) != 10 {
		t.Fatalf("expected 10 records, got %d", len(data))
	}
	first := data[0].(map[string]any)
	if first["id"].(float64) != 11 {
		t.Errorf("expected first id 11, got %v", first["id"])
	}
	if meta["total"].(float64) != 25 {
		t.Errorf("expected total 25, got %v", meta["total"])
	}
	if meta["has_next"] != true {
		t.Errorf("expected has_next true")
	}
}

func TestErrorList_LastPage(t *testing.T) {
	c := newMemCache()
	seedRecords(t, c, testRecords(25))

	h := NewErrorListHandler(c)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors?page=3&limit=10", nil))

	data, meta := parseCollection(t, rec)
	if len(data) != 5 {
		t.Fatalf("expected 5 records, got %d", len(data))
	}
	if meta["has_next"] != false {
		t.Errorf("expected has_next false")
	}
}

func TestErrorList_ColdCache(t *testing.T) {
	h := NewErrorListHandler(newMemCache())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, meta := parseCollection(t, rec)
	if len(data) != 0 {
		t.Errorf("expected no records, got %d", len(data))
	}
	if meta["total"].(float64) != 0 {
		t.Errorf("expected total 0, got %v", meta["total"])
	}
}

func TestErrorList_BadPageParamsFallBack(t *testing.T) {
	c := newMemCache()
	seedRecords(t, c, testRecords(3))

	h := NewErrorListHandler(c)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/errors?page=abc&limit=-5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, meta := parseCollection(t, rec)
	if len(data) != 3 {
		t.Errorf("expected 3 records, got %d", len(data))
	}
	if meta["page"].(float64) != 1 {
		t.Errorf("expected page 1, got %v", meta["page"])
	}
}
