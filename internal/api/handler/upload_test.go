package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/internal/config"
	"github.com/stefanbaur/errsight/pkg/models"
)

const visualObjectsLog = `Application startup
***********************ERROR********************************
02.12.2024 12:54:19
   50 [ ACCESS VIOLATION ]
Call stack:
  APPWINDOW:DISPATCH
***********************ERROR********************************
02.12.2024 13:10:00
   2 [ BOUND ERROR ]
Call stack:
  SERVER:SKIP
`

const dotNetLog = `Session opened
------------------------------
Logged at: 01.12.2024 15:23:41
System.AccessViolationException: Attempted to read protected memory.
   at ErpClient.Forms.MainForm.Render()
`

type namedFile struct {
	name    string
	content string
}

func multipartRequest(t *testing.T, files []namedFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}

func uploadCfg() config.UploadConfig {
	return config.UploadConfig{
		MaxFileBytes:      1 << 20,
		AllowedExtensions: []string{".log"},
	}
}

func TestUploadHandler_HappyPath(t *testing.T) {
	c := newMemCache()
	h := NewUploadHandler(c, &mockStore{}, uploadCfg(), time.Hour)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
		{"EC_20241201_SWE.LOG", dotNetLog},
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	data := parseData(t, rec)
	if data["total_files"].(float64) != 2 {
		t.Errorf("expected 2 files, got %v", data["total_files"])
	}
	if data["total_errors"].(float64) != 3 {
		t.Errorf("expected 3 errors, got %v", data["total_errors"])
	}

	summary := data["summary"].(map[string]any)
	if summary["critical_errors"].(float64) != 2 {
		t.Errorf("expected 2 critical, got %v", summary["critical_errors"])
	}
	if summary["active_users"].(float64) != 2 {
		t.Errorf("expected 2 users, got %v", summary["active_users"])
	}
}

func TestUploadHandler_GloballySequentialIDs(t *testing.T) {
	c := newMemCache()
	h := NewUploadHandler(c, &mockStore{}, uploadCfg(), time.Hour)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
		{"EC_20241201_SWE.LOG", dotNetLog},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var records []models.ErrorRecord
	if err := json.Unmarshal(c.data[cache.RecordsKey], &records); err != nil {
		t.Fatalf("unmarshal cached records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, r := range records {
		if r.ID != i+1 {
			t.Errorf("record %d has ID %d", i, r.ID)
		}
	}
	if records[2].User != "SWE" {
		t.Errorf("expected third record from SWE, got %q", records[2].User)
	}
}

func TestUploadHandler_CachesAllAggregates(t *testing.T) {
	c := newMemCache()
	h := NewUploadHandler(c, &mockStore{}, uploadCfg(), time.Hour)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	for _, key := range []string{
		cache.RecordsKey, cache.SummaryKey, cache.TypesKey,
		cache.UserActivityKey, cache.CriticalKey, cache.TimelineKey,
	} {
		if _, ok := c.data[key]; !ok {
			t.Errorf("aggregate %q not cached", key)
		}
	}

	var timeline models.ChartData
	if err := json.Unmarshal(c.data[cache.TimelineKey], &timeline); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if len(timeline.Labels) != 1 || timeline.Labels[0] != "2024-12-02" {
		t.Errorf("unexpected timeline labels: %v", timeline.Labels)
	}
	if timeline.Data[0] != 2 {
		t.Errorf("expected 2 errors on 2024-12-02, got %d", timeline.Data[0])
	}
}

func TestUploadHandler_ArchivesBatch(t *testing.T) {
	var gotBatch *models.UploadBatch
	var gotFiles []*models.UploadFile
	s := &mockStore{createFn: func(_ context.Context, b *models.UploadBatch, f []*models.UploadFile) error {
		gotBatch = b
		gotFiles = f
		return nil
	}}

	h := NewUploadHandler(newMemCache(), s, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
		{"EC_20241201_SWE.LOG", dotNetLog},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	if gotBatch == nil {
		t.Fatal("batch not archived")
	}
	if gotBatch.TotalErrors != 3 || gotBatch.CriticalErrors != 2 || gotBatch.FilesAnalyzed != 2 {
		t.Errorf("unexpected batch: %+v", gotBatch)
	}
	if len(gotFiles) != 2 {
		t.Fatalf("expected 2 files, got %d", len(gotFiles))
	}
	if gotFiles[0].DetectedFormat != "visual_objects" || gotFiles[1].DetectedFormat != "dotnet" {
		t.Errorf("unexpected formats: %s, %s", gotFiles[0].DetectedFormat, gotFiles[1].DetectedFormat)
	}
}

func TestUploadHandler_StoreFailureStillSucceeds(t *testing.T) {
	s := &mockStore{createFn: func(_ context.Context, _ *models.UploadBatch, _ []*models.UploadFile) error {
		return errors.New("db down")
	}}

	h := NewUploadHandler(newMemCache(), s, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
	}))

	// Archiving is best effort; the cached analysis is the deliverable.
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUploadHandler_InvalidExtension(t *testing.T) {
	h := NewUploadHandler(newMemCache(), &mockStore{}, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"notes.txt", "not a log"},
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestUploadHandler_MixedValidity_Rejected(t *testing.T) {
	// One bad extension fails the whole batch, matching strict validation.
	h := NewUploadHandler(newMemCache(), &mockStore{}, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
		{"notes.txt", "not a log"},
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestUploadHandler_NoFiles(t *testing.T) {
	h := NewUploadHandler(newMemCache(), &mockStore{}, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, nil))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestUploadHandler_OversizedFile(t *testing.T) {
	cfg := uploadCfg()
	cfg.MaxFileBytes = 10
	h := NewUploadHandler(newMemCache(), &mockStore{}, cfg, time.Hour)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"E_20241202_GAM.LOG", visualObjectsLog},
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestUploadHandler_UnknownFormatWarns(t *testing.T) {
	h := NewUploadHandler(newMemCache(), &mockStore{}, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, []namedFile{
		{"random.log", "no recognizable structure"},
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	data := parseData(t, rec)
	warnings := data["warnings"].([]any)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if data["total_errors"].(float64) != 0 {
		t.Errorf("expected 0 errors, got %v", data["total_errors"])
	}
}

func TestUploadHandler_NotMultipart(t *testing.T) {
	h := NewUploadHandler(newMemCache(), &mockStore{}, uploadCfg(), time.Hour)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/upload", bytes.NewReader([]byte("plain body")))
	h.ServeHTTP(rec, r)

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}
