package models

// SimilarityResult pairs a candidate record with its cosine similarity to
// the target. Score is rounded to 3 decimals, Percentage to 1.
type SimilarityResult struct {
	ErrorRecord
	SimilarityScore      float64 `json:"similarity_score"`
	SimilarityPercentage float64 `json:"similarity_percentage"`
}
