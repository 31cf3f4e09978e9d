package models

// Correlation hypothesis kinds.
const (
	CorrelationTimeBurst   = "time_burst"
	CorrelationUserPattern = "user_pattern"
	CorrelationTypePair    = "type_correlation"
)

// Correlation is a typed root-cause hypothesis with a confidence in [0,1].
// The optional fields carry the supporting evidence for the specific kind:
// bursts fill ErrorTypes/AffectedUsers/StartTime, user patterns fill
// User/DominantError/Frequency, and type pairs fill ErrorType1/ErrorType2/
// CoOccurrenceCount/CorrelationStrength.
type Correlation struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Suggestion  string  `json:"suggestion"`
	ErrorCount  int     `json:"error_count"`

	ErrorTypes    []string `json:"error_types,omitempty"`
	AffectedUsers []string `json:"affected_users,omitempty"`
	StartTime     string   `json:"start_time,omitempty"`

	User          string `json:"user,omitempty"`
	DominantError string `json:"dominant_error,omitempty"`
	Frequency     string `json:"frequency,omitempty"`

	ErrorType1          string  `json:"error_type_1,omitempty"`
	ErrorType2          string  `json:"error_type_2,omitempty"`
	CoOccurrenceCount   int     `json:"co_occurrence_count,omitempty"`
	CorrelationStrength float64 `json:"correlation_strength,omitempty"`
}
