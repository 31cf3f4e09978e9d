package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stefanbaur/errsight/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUploadBatch persists a batch and its accepted files in one
// transaction, so history never shows a batch with missing files.
func (s *PostgresStore) CreateUploadBatch(ctx context.Context, batch *models.UploadBatch, files []*models.UploadFile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upload batch: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO upload_batches (id, files_analyzed, total_errors, critical_errors, active_users, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		batch.ID, batch.FilesAnalyzed, batch.TotalErrors, batch.CriticalErrors,
		batch.ActiveUsers, batch.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create upload batch: %w", err)
	}

	for _, f := range files {
		_, err = tx.Exec(ctx,
			`INSERT INTO upload_files (id, batch_id, filename, size_bytes, detected_format, errors_found, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.BatchID, f.Filename, f.SizeBytes, f.DetectedFormat, f.ErrorsFound, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("create upload file %s: %w", f.Filename, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upload batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUploadBatch(ctx context.Context, id uuid.UUID) (*models.UploadBatch, []*models.UploadFile, error) {
	var b models.UploadBatch
	err := s.pool.QueryRow(ctx,
		`SELECT id, files_analyzed, total_errors, critical_errors, active_users, created_at
		 FROM upload_batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.FilesAnalyzed, &b.TotalErrors, &b.CriticalErrors, &b.ActiveUsers, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get upload batch: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, batch_id, filename, size_bytes, detected_format, errors_found, created_at
		 FROM upload_files WHERE batch_id = $1 ORDER BY filename`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get upload files: %w", err)
	}
	defer rows.Close()

	files := []*models.UploadFile{}
	for rows.Next() {
		var f models.UploadFile
		if err := rows.Scan(&f.ID, &f.BatchID, &f.Filename, &f.SizeBytes,
			&f.DetectedFormat, &f.ErrorsFound, &f.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan upload file: %w", err)
		}
		files = append(files, &f)
	}
	return &b, files, rows.Err()
}

func (s *PostgresStore) ListUploadBatches(ctx context.Context, filter BatchFilter) ([]*models.UploadBatch, int, error) {
	where := "TRUE"
	args := []any{}
	if !filter.Since.IsZero() {
		where = "created_at >= $1"
		args = append(args, filter.Since)
	}
	argIdx := len(args) + 1

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM upload_batches WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count upload batches: %w", err)
	}

	// Normalize pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(
		`SELECT id, files_analyzed, total_errors, critical_errors, active_users, created_at
		 FROM upload_batches WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list upload batches: %w", err)
	}
	defer rows.Close()

	batches := []*models.UploadBatch{}
	for rows.Next() {
		var b models.UploadBatch
		if err := rows.Scan(&b.ID, &b.FilesAnalyzed, &b.TotalErrors,
			&b.CriticalErrors, &b.ActiveUsers, &b.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan upload batch: %w", err)
		}
		batches = append(batches, &b)
	}
	return batches, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
