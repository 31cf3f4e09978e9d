package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stefanbaur/errsight/internal/cache"
	"github.com/stefanbaur/errsight/internal/store"
	"github.com/stefanbaur/errsight/pkg/models"
)

// --- in-memory cache ---

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Ping(_ context.Context) error { return nil }

func (m *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*memCache)(nil)

// seedRecords stores a record set under the records key.
func seedRecords(t *testing.T, c *memCache, records []models.ErrorRecord) {
	t.Helper()
	b, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}
	c.data[cache.RecordsKey] = b
}

// --- mock store ---

type mockStore struct {
	createFn func(ctx context.Context, batch *models.UploadBatch, files []*models.UploadFile) error
	getFn    func(ctx context.Context, id uuid.UUID) (*models.UploadBatch, []*models.UploadFile, error)
	listFn   func(ctx context.Context, f store.BatchFilter) ([]*models.UploadBatch, int, error)
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

func (m *mockStore) CreateUploadBatch(ctx context.Context, batch *models.UploadBatch, files []*models.UploadFile) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, batch, files)
}

func (m *mockStore) GetUploadBatch(ctx context.Context, id uuid.UUID) (*models.UploadBatch, []*models.UploadFile, error) {
	if m.getFn == nil {
		return nil, nil, store.ErrNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockStore) ListUploadBatches(ctx context.Context, f store.BatchFilter) ([]*models.UploadBatch, int, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, f)
}

var _ store.Store = (*mockStore)(nil)

// --- envelope helpers ---

func parseData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func parseDataList(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	var env struct {
		Data []any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func parseCollection(t *testing.T, rec *httptest.ResponseRecorder) ([]any, map[string]any) {
	t.Helper()
	var env struct {
		Data []any          `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data, env.Meta
}

func parseErr(t *testing.T, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, env.Error.Code
}
