package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadBatch is the persisted summary of one upload request: how many
// files were accepted and what the parsed record set looked like.
type UploadBatch struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	FilesAnalyzed  int       `db:"files_analyzed"  json:"files_analyzed"`
	TotalErrors    int       `db:"total_errors"    json:"total_errors"`
	CriticalErrors int       `db:"critical_errors" json:"critical_errors"`
	ActiveUsers    int       `db:"active_users"    json:"active_users"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}

// UploadFile is one accepted file within a batch.
type UploadFile struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	BatchID        uuid.UUID `db:"batch_id"        json:"batch_id"`
	Filename       string    `db:"filename"        json:"filename"`
	SizeBytes      int64     `db:"size_bytes"      json:"size_bytes"`
	DetectedFormat string    `db:"detected_format" json:"detected_format"`
	ErrorsFound    int       `db:"errors_found"    json:"errors_found"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
