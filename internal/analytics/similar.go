package analytics

import (
	"sort"
	"strings"

	"github.com/stefanbaur/errsight/pkg/models"
)

const defaultSimilarLimit = 5

// SimilarErrors ranks candidate records by cosine similarity of their
// normalized text to the target. The target itself (matched by ID) is
// excluded. When the record set yields no usable vocabulary, the method
// falls back to exact type matching with zero scores rather than failing.
func (e *Engine) SimilarErrors(target models.ErrorRecord, records []models.ErrorRecord, limit int) []models.SimilarityResult {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	candidates := make([]models.ErrorRecord, 0, len(records))
	for _, r := range records {
		if r.ID != target.ID {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return []models.SimilarityResult{}
	}

	targetText := NormalizeText(target)
	if strings.TrimSpace(targetText) == "" {
		return []models.SimilarityResult{}
	}

	docs := make([]string, 0, len(candidates)+1)
	docs = append(docs, targetText)
	for _, r := range candidates {
		docs = append(docs, NormalizeText(r))
	}

	vectors, err := newVectorizer(e.opts.MaxFeatures).fitTransform(docs)
	if err != nil {
		return typeMatchFallback(target, candidates, limit)
	}

	results := make([]models.SimilarityResult, 0, len(candidates))
	for i, r := range candidates {
		score := cosineSimilarity(vectors[0], vectors[i+1])
		results = append(results, models.SimilarityResult{
			ErrorRecord:          r,
			SimilarityScore:      round3(score),
			SimilarityPercentage: round1(score * 100),
		})
	}

	// Stable sort keeps input order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// typeMatchFallback returns candidates sharing the target's type, in input
// order, with zero similarity scores.
func typeMatchFallback(target models.ErrorRecord, candidates []models.ErrorRecord, limit int) []models.SimilarityResult {
	results := []models.SimilarityResult{}
	for _, r := range candidates {
		if r.Type != target.Type {
			continue
		}
		results = append(results, models.SimilarityResult{ErrorRecord: r})
		if len(results) == limit {
			break
		}
	}
	return results
}
