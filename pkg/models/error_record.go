package models

// Severity levels, ordered by impact.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// UnknownUser is the sentinel user for filenames that don't carry a user segment.
const UnknownUser = "Unknown"

// TimestampLayout is the wire format used by both vendor log formats.
const TimestampLayout = "02.01.2006 15:04:05"

// ErrorRecord is one structured error occurrence extracted from a raw log
// file. Records are immutable once parsed; analytic components treat slices
// of them as read-only input. IDs are assigned by the caller as a global
// sequence across all files in an upload batch.
type ErrorRecord struct {
	ID        int    `json:"id"`
	Filename  string `json:"filename"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Severity  string `json:"severity"`
	Content   string `json:"content"`
}
