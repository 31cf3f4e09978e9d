package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stefanbaur/errsight/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through
// here. The database holds the durable upload history; the live record set
// and its aggregates live in the cache.
type Store interface {
	Ping(ctx context.Context) error

	CreateUploadBatch(ctx context.Context, batch *models.UploadBatch, files []*models.UploadFile) error
	GetUploadBatch(ctx context.Context, id uuid.UUID) (*models.UploadBatch, []*models.UploadFile, error)
	ListUploadBatches(ctx context.Context, filter BatchFilter) ([]*models.UploadBatch, int, error)
}

type BatchFilter struct {
	Since time.Time
	Page  int
	Limit int
}
