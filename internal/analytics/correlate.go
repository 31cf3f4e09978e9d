package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/stefanbaur/errsight/pkg/models"
)

// RootCauseCorrelations runs the three correlation passes (temporal bursts,
// per-user repetition, type co-occurrence), merges their hypotheses, and
// returns the top ones by confidence. Ties preserve pass order so output is
// deterministic for a given record set.
func (e *Engine) RootCauseCorrelations(records []models.ErrorRecord) []models.Correlation {
	correlations := []models.Correlation{}
	if len(records) == 0 {
		return correlations
	}

	correlations = append(correlations, e.timeBursts(records)...)
	correlations = append(correlations, e.userPatterns(records)...)
	correlations = append(correlations, e.typePairs(records)...)

	sort.SliceStable(correlations, func(i, j int) bool {
		return correlations[i].Confidence > correlations[j].Confidence
	})
	if len(correlations) > e.opts.TopCorrelations {
		correlations = correlations[:e.opts.TopCorrelations]
	}
	return correlations
}

type timedRecord struct {
	models.ErrorRecord
	at time.Time
}

// timeBursts scans the time-ordered record stream for bursts: each record
// looks at up to BurstLookahead successors and collects those within
// BurstWindow, stopping at the first gap. Two or more followers make a
// burst. Confidence grows 0.1 per follower from 0.5, capped at 0.9.
func (e *Engine) timeBursts(records []models.ErrorRecord) []models.Correlation {
	timed := make([]timedRecord, 0, len(records))
	for _, r := range records {
		ts, err := time.ParseInLocation(models.TimestampLayout, r.Timestamp, time.Local)
		if err != nil {
			continue
		}
		timed = append(timed, timedRecord{ErrorRecord: r, at: ts})
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].at.Before(timed[j].at) })

	minutes := e.opts.BurstWindow.Minutes()
	correlations := []models.Correlation{}
	for i := 0; i < len(timed)-1; i++ {
		following := []timedRecord{}
		for j := i + 1; j < len(timed) && j <= i+e.opts.BurstLookahead; j++ {
			if timed[j].at.Sub(timed[i].at) > e.opts.BurstWindow {
				break
			}
			following = append(following, timed[j])
		}
		if len(following) < 2 {
			continue
		}

		involved := append([]timedRecord{timed[i]}, following...)
		types := []string{}
		users := []string{}
		seenTypes := map[string]struct{}{}
		seenUsers := map[string]struct{}{}
		for _, r := range involved {
			if _, ok := seenTypes[r.Type]; !ok {
				seenTypes[r.Type] = struct{}{}
				types = append(types, r.Type)
			}
			if _, ok := seenUsers[r.User]; !ok {
				seenUsers[r.User] = struct{}{}
				users = append(users, r.User)
			}
		}

		correlations = append(correlations, models.Correlation{
			Type: models.CorrelationTimeBurst,
			Title: fmt.Sprintf("Error burst detected: %d errors in %.0f minutes",
				len(involved), minutes),
			Description: fmt.Sprintf("Multiple errors occurred within %.0f minutes", minutes),
			Confidence:  min(0.9, 0.5+float64(len(following))*0.1),
			Suggestion: "Investigate system state during this time period - " +
				"possible cascading failure or external trigger",
			ErrorCount:    len(involved),
			ErrorTypes:    types,
			AffectedUsers: users,
			StartTime:     timed[i].at.Format(models.TimestampLayout),
		})
	}
	return correlations
}

// userPatterns flags users whose record set is dominated by one error type.
// Users with fewer than RepetitionMin records are skipped; the dominant
// type must itself reach RepetitionMin occurrences.
func (e *Engine) userPatterns(records []models.ErrorRecord) []models.Correlation {
	typesByUser := map[string][]string{}
	for _, r := range records {
		typesByUser[r.User] = append(typesByUser[r.User], r.Type)
	}

	users := make([]string, 0, len(typesByUser))
	for user := range typesByUser {
		users = append(users, user)
	}
	sort.Strings(users)

	correlations := []models.Correlation{}
	for _, user := range users {
		types := typesByUser[user]
		if len(types) < e.opts.RepetitionMin {
			continue
		}

		counts := map[string]int{}
		for _, t := range types {
			counts[t]++
		}
		dominant, count := modeString(counts)
		if count < e.opts.RepetitionMin {
			continue
		}

		total := len(types)
		correlations = append(correlations, models.Correlation{
			Type:          models.CorrelationUserPattern,
			Title:         fmt.Sprintf("User %s has repetitive error pattern", user),
			Description:   fmt.Sprintf("%d/%d errors are '%s'", count, total, dominant),
			Confidence:    min(0.9, float64(count)/float64(total)),
			Suggestion:    fmt.Sprintf("User %s may need specific training on '%s' or there's a systemic issue affecting this user", user, dominant),
			ErrorCount:    count,
			User:          user,
			DominantError: dominant,
			Frequency:     fmt.Sprintf("%d/%d", count, total),
		})
	}
	return correlations
}

// typePairs counts, per user and calendar day, the distinct error-type
// pairs seen together. Pairs meeting the count and strength thresholds
// become hypotheses, where strength is the co-occurrence count over the
// rarer type's total.
func (e *Engine) typePairs(records []models.ErrorRecord) []models.Correlation {
	typeTotals := map[string]int{}
	dayTypes := map[string]map[string]struct{}{}
	for _, r := range records {
		typeTotals[r.Type]++
		ts, err := time.ParseInLocation(models.TimestampLayout, r.Timestamp, time.Local)
		if err != nil {
			continue
		}
		key := r.User + "\x00" + ts.Format("2006-01-02")
		if dayTypes[key] == nil {
			dayTypes[key] = map[string]struct{}{}
		}
		dayTypes[key][r.Type] = struct{}{}
	}

	pairCounts := map[[2]string]int{}
	for _, types := range dayTypes {
		distinct := make([]string, 0, len(types))
		for t := range types {
			distinct = append(distinct, t)
		}
		sort.Strings(distinct)
		for i := 0; i < len(distinct); i++ {
			for j := i + 1; j < len(distinct); j++ {
				pairCounts[[2]string{distinct[i], distinct[j]}]++
			}
		}
	}

	pairs := make([][2]string, 0, len(pairCounts))
	for pair := range pairCounts {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	correlations := []models.Correlation{}
	for _, pair := range pairs {
		count := pairCounts[pair]
		if count < e.opts.CoOccurrenceMin {
			continue
		}
		type1, type2 := pair[0], pair[1]
		strength := float64(count) / float64(min(typeTotals[type1], typeTotals[type2]))
		if strength < e.opts.CoOccurrenceMinRatio {
			continue
		}

		correlations = append(correlations, models.Correlation{
			Type:        models.CorrelationTypePair,
			Title:       fmt.Sprintf("'%s' and '%s' frequently occur together", type1, type2),
			Description: fmt.Sprintf("These error types co-occurred %d times", count),
			Confidence:  min(0.9, strength),
			Suggestion: fmt.Sprintf("Investigate common root cause between '%s' and '%s' - "+
				"possible shared dependency or workflow issue", type1, type2),
			ErrorCount:          count,
			ErrorType1:          type1,
			ErrorType2:          type2,
			CoOccurrenceCount:   count,
			CorrelationStrength: round2(strength),
		})
	}
	return correlations
}
