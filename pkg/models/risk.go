package models

// Risk categories with their dashboard colors.
const (
	RiskCategoryHigh    = "High Risk"
	RiskCategoryMedium  = "Medium Risk"
	RiskCategoryLow     = "Low Risk"
	RiskCategoryMinimal = "Minimal Risk"
)

// RiskFactors holds the five weighted components of a user's risk score,
// each on a 0-10 scale.
type RiskFactors struct {
	Frequency     float64 `json:"frequency"`
	Severity      float64 `json:"severity"`
	Diversity     float64 `json:"diversity"`
	Trend         float64 `json:"trend"`
	CriticalRatio float64 `json:"critical_ratio"`
}

// UserRiskProfile is the per-user risk assessment derived from the full
// record set.
type UserRiskProfile struct {
	User            string      `json:"user"`
	RiskScore       float64     `json:"risk_score"`
	Category        string      `json:"category"`
	Color           string      `json:"color"`
	TotalErrors     int         `json:"total_errors"`
	CriticalErrors  int         `json:"critical_errors"`
	MostCommonError string      `json:"most_common_error"`
	Insights        []string    `json:"insights"`
	RiskFactors     RiskFactors `json:"risk_factors"`
}
