package analytics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/stefanbaur/errsight/pkg/models"
)

var reWord = regexp.MustCompile(`\w+`)

// Generic words excluded when naming a cluster from its raw text.
var categoryNameStopwords = map[string]struct{}{
	"error": {}, "exception": {}, "failed": {}, "cannot": {},
	"unable": {}, "code": {}, "type": {},
}

// Categorize groups records into density clusters over their normalized
// text and names each cluster after its dominant error type. Records in no
// dense neighborhood are counted as outliers. An empty input or a record
// set with no usable vocabulary yields the empty result, never a partial
// one.
func (e *Engine) Categorize(records []models.ErrorRecord) models.CategorizationResult {
	result := models.CategorizationResult{
		Categories:  map[string]models.ErrorCategory{},
		Suggestions: []models.CategorySuggestion{},
	}
	if len(records) == 0 {
		return result
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = NormalizeText(r)
	}

	vectors, err := newVectorizer(e.opts.MaxFeatures).fitTransform(texts)
	if err != nil {
		return result
	}
	labels := dbscanCosine(vectors, e.opts.ClusterEps, e.opts.ClusterMinSize)

	members := map[int][]int{}
	outliers := 0
	for i, label := range labels {
		if label == -1 {
			outliers++
			continue
		}
		members[label] = append(members[label], i)
	}

	clusterIDs := make([]int, 0, len(members))
	for id := range members {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	for _, id := range clusterIDs {
		idx := members[id]
		clusterRecords := make([]models.ErrorRecord, len(idx))
		clusterTexts := make([]string, len(idx))
		errorIDs := make([]int, len(idx))
		for i, j := range idx {
			clusterRecords[i] = records[j]
			clusterTexts[i] = texts[j]
			errorIDs[i] = records[j].ID
		}

		name := categoryName(clusterTexts, clusterRecords)
		result.Categories[fmt.Sprintf("Category_%d", id)] = models.ErrorCategory{
			Name:           name,
			Count:          len(idx),
			Errors:         errorIDs,
			CommonPatterns: commonPatterns(clusterRecords),
		}

		if len(idx) >= 3 {
			priority := "Medium"
			if len(idx) > 10 {
				priority = "High"
			}
			result.Suggestions = append(result.Suggestions, models.CategorySuggestion{
				Category: name,
				Suggestion: fmt.Sprintf(
					"Consider creating a specific handler for '%s' - %d similar errors detected",
					name, len(idx)),
				Priority: priority,
			})
		}
	}

	if outliers > 0 {
		result.Suggestions = append(result.Suggestions, models.CategorySuggestion{
			Category: "Unique Errors",
			Suggestion: fmt.Sprintf(
				"%d unique error patterns identified - may need individual investigation", outliers),
			Priority: "Low",
		})
	}

	result.TotalClusters = len(clusterIDs)
	result.Outliers = outliers
	return result
}

// categoryName prefers the cluster's dominant error type. When no record
// carries a type, it falls back to the two most frequent content words.
func categoryName(texts []string, records []models.ErrorRecord) string {
	typeCounts := map[string]int{}
	for _, r := range records {
		if r.Type != "" {
			typeCounts[r.Type]++
		}
	}
	if name, _ := modeString(typeCounts); name != "" {
		return name
	}

	wordCounts := map[string]int{}
	for _, w := range reWord.FindAllString(strings.ToLower(strings.Join(texts, " ")), -1) {
		wordCounts[w]++
	}
	words := make([]string, 0, len(wordCounts))
	for w := range wordCounts {
		if len(w) <= 3 {
			continue
		}
		if _, skip := categoryNameStopwords[w]; skip {
			continue
		}
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if wordCounts[words[i]] != wordCounts[words[j]] {
			return wordCounts[words[i]] > wordCounts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) == 0 {
		return "Unknown Pattern"
	}
	if len(words) > 2 {
		words = words[:2]
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " Related"
}

// commonPatterns summarizes the dominant severity, user, and hour of day
// within one cluster. The hour is omitted when no timestamp parses.
func commonPatterns(records []models.ErrorRecord) models.PatternSummary {
	severityCounts := map[string]int{}
	userCounts := map[string]int{}
	hourCounts := map[int]int{}
	for _, r := range records {
		severityCounts[r.Severity]++
		userCounts[r.User]++
		if ts, err := time.ParseInLocation(models.TimestampLayout, r.Timestamp, time.Local); err == nil {
			hourCounts[ts.Hour()]++
		}
	}

	summary := models.PatternSummary{}
	if severity, _ := modeString(severityCounts); severity != "" {
		summary.CommonSeverity = severity
	}
	if user, count := modeString(userCounts); user != "" {
		summary.PrimaryUser = user
		summary.UserConcentration = fmt.Sprintf("%d/%d", count, len(records))
	}
	if len(hourCounts) > 0 {
		bestHour, bestCount := 0, 0
		for hour, count := range hourCounts {
			if count > bestCount || (count == bestCount && hour < bestHour) {
				bestHour, bestCount = hour, count
			}
		}
		summary.CommonTime = fmt.Sprintf("%02d:00", bestHour)
	}
	return summary
}
