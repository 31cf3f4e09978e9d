package models

// ErrorSummary is the headline dashboard figure set for the current record set.
type ErrorSummary struct {
	TotalErrors    int `json:"total_errors"`
	CriticalErrors int `json:"critical_errors"`
	ActiveUsers    int `json:"active_users"`
	FilesAnalyzed  int `json:"files_analyzed"`
}

// ChartData is a label/value series shaped for the dashboard charts
// (error-type distribution, per-user activity, daily timeline).
type ChartData struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}
