package models

// PatternSummary describes the dominant attributes within one error cluster.
// UserConcentration is "count/total" for the primary user; CommonTime is the
// dominant hour formatted "HH:00". Fields are omitted when no timestamp or
// user data was available.
type PatternSummary struct {
	CommonSeverity    string `json:"common_severity,omitempty"`
	PrimaryUser       string `json:"primary_user,omitempty"`
	UserConcentration string `json:"user_concentration,omitempty"`
	CommonTime        string `json:"common_time,omitempty"`
}

// ErrorCategory is one named density cluster of error records.
type ErrorCategory struct {
	Name           string         `json:"name"`
	Count          int            `json:"count"`
	Errors         []int          `json:"errors"`
	CommonPatterns PatternSummary `json:"common_patterns"`
}

// CategorySuggestion is an improvement hint derived from cluster sizes.
type CategorySuggestion struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// CategorizationResult is the full output of auto-categorization. Failed or
// empty runs produce the zero-equivalent value (empty maps/slices), never a
// partially populated one.
type CategorizationResult struct {
	Categories    map[string]ErrorCategory `json:"categories"`
	Suggestions   []CategorySuggestion     `json:"suggestions"`
	TotalClusters int                      `json:"total_clusters"`
	Outliers      int                      `json:"outliers"`
}
