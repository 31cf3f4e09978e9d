package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/stefanbaur/errsight/pkg/models"
)

// Risk factor weights. They sum to 1 so the weighted score stays on the
// same 0-10 scale as the factors.
const (
	weightFrequency     = 0.25
	weightSeverity      = 0.30
	weightDiversity     = 0.20
	weightTrend         = 0.15
	weightCriticalRatio = 0.10
)

// Category thresholds on the 0-10 risk score.
const (
	riskThresholdHigh   = 7.5
	riskThresholdMedium = 5.0
	riskThresholdLow    = 2.5
)

const trendNeutral = 5.0

func severityWeight(severity string) float64 {
	switch severity {
	case models.SeverityCritical:
		return 10
	case models.SeverityHigh:
		return 7
	case models.SeverityMedium:
		return 4
	case models.SeverityLow:
		return 1
	}
	return 0
}

func riskCategory(score float64) (category, color string) {
	switch {
	case score >= riskThresholdHigh:
		return models.RiskCategoryHigh, "#f44336"
	case score >= riskThresholdMedium:
		return models.RiskCategoryMedium, "#ff9800"
	case score >= riskThresholdLow:
		return models.RiskCategoryLow, "#ffc107"
	}
	return models.RiskCategoryMinimal, "#4caf50"
}

// UserRiskScores computes a weighted risk profile per user. Records with an
// empty or Unknown user are counted in the population averages but get no
// profile of their own. Profiles are sorted by risk score descending, ties
// broken by user name for stable output.
func (e *Engine) UserRiskScores(records []models.ErrorRecord) []models.UserRiskProfile {
	profiles := []models.UserRiskProfile{}
	if len(records) == 0 {
		return profiles
	}

	byUser := map[string][]models.ErrorRecord{}
	allUsers := map[string]struct{}{}
	allTypes := map[string]struct{}{}
	for _, r := range records {
		byUser[r.User] = append(byUser[r.User], r)
		allUsers[r.User] = struct{}{}
		allTypes[r.Type] = struct{}{}
	}
	avgPerUser := float64(len(records)) / float64(len(allUsers))

	users := make([]string, 0, len(byUser))
	for user := range byUser {
		if user == "" || user == models.UnknownUser {
			continue
		}
		users = append(users, user)
	}
	sort.Strings(users)

	for _, user := range users {
		userRecords := byUser[user]
		count := len(userRecords)

		criticalCount := 0
		severitySum := 0.0
		userTypes := map[string]int{}
		for _, r := range userRecords {
			if r.Severity == models.SeverityCritical {
				criticalCount++
			}
			severitySum += severityWeight(r.Severity)
			userTypes[r.Type]++
		}

		factors := models.RiskFactors{
			Frequency:     clamp(float64(count)/max(avgPerUser, 1)*3, 0, 10),
			Severity:      severitySum / float64(count),
			Diversity:     clamp(float64(len(userTypes))/max(float64(len(allTypes)), 1)*10, 0, 10),
			Trend:         e.trendScore(userRecords),
			CriticalRatio: float64(criticalCount) / float64(count) * 10,
		}

		score := factors.Frequency*weightFrequency +
			factors.Severity*weightSeverity +
			factors.Diversity*weightDiversity +
			factors.Trend*weightTrend +
			factors.CriticalRatio*weightCriticalRatio
		category, color := riskCategory(score)

		mostCommon, mostCommonCount := modeString(userTypes)

		profiles = append(profiles, models.UserRiskProfile{
			User:            user,
			RiskScore:       round1(score),
			Category:        category,
			Color:           color,
			TotalErrors:     count,
			CriticalErrors:  criticalCount,
			MostCommonError: mostCommon,
			Insights: userInsights(factors, count, criticalCount,
				len(userTypes), avgPerUser, mostCommon, mostCommonCount),
			RiskFactors: factors,
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].RiskScore != profiles[j].RiskScore {
			return profiles[i].RiskScore > profiles[j].RiskScore
		}
		return profiles[i].User < profiles[j].User
	})
	return profiles
}

// trendScore maps the least-squares slope of the user's daily error counts
// onto a 0-10 scale, 5 being flat. Users with fewer than two parseable
// timestamps or fewer than two distinct days score neutral.
func (e *Engine) trendScore(records []models.ErrorRecord) float64 {
	if len(records) < 2 {
		return trendNeutral
	}

	times := make([]time.Time, 0, len(records))
	for _, r := range records {
		ts, err := time.ParseInLocation(models.TimestampLayout, r.Timestamp, time.Local)
		if err != nil {
			continue
		}
		times = append(times, ts)
	}
	if len(times) < 2 {
		return trendNeutral
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	dailyCounts := []float64{}
	lastDay := ""
	for _, ts := range times {
		day := ts.Format("2006-01-02")
		if day != lastDay {
			dailyCounts = append(dailyCounts, 0)
			lastDay = day
		}
		dailyCounts[len(dailyCounts)-1]++
	}
	if len(dailyCounts) < 2 {
		return trendNeutral
	}

	return clamp(trendNeutral+linearSlope(dailyCounts)*e.opts.TrendSensitivity, 0, 10)
}

// linearSlope is the least-squares slope of y over x = 0..n-1.
func linearSlope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// userInsights emits up to three human-readable observations, evaluated in
// fixed priority order.
func userInsights(factors models.RiskFactors, count, criticalCount, typeCount int,
	avgPerUser float64, mostCommon string, mostCommonCount int) []string {

	insights := []string{}
	if factors.Frequency > 7 {
		insights = append(insights, fmt.Sprintf(
			"Generates %d errors vs %.1f average - needs attention", count, avgPerUser))
	}
	if factors.Severity > 7 {
		insights = append(insights, fmt.Sprintf(
			"High severity pattern: %d critical errors detected", criticalCount))
	}
	if factors.Diversity > 7 {
		insights = append(insights, fmt.Sprintf(
			"Wide error variety: %d different error types - broad system usage issues", typeCount))
	}
	if factors.Trend > 7 {
		insights = append(insights,
			"Error frequency increasing over time - system degradation or learning curve")
	} else if factors.Trend < 3 {
		insights = append(insights, "Error frequency decreasing - showing improvement")
	}
	if mostCommon != "" && float64(mostCommonCount) > float64(count)*0.5 {
		insights = append(insights, fmt.Sprintf(
			"Dominant issue: %d '%s' errors - focused training needed", mostCommonCount, mostCommon))
	}
	if len(insights) == 0 {
		insights = append(insights, "Normal error pattern - no specific concerns identified")
	}
	if len(insights) > 3 {
		insights = insights[:3]
	}
	return insights
}

// modeString returns the most frequent key, ties broken lexicographically.
func modeString(counts map[string]int) (string, int) {
	best, bestCount := "", 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount
}

