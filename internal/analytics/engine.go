// Package analytics derives operational insight from a parsed error record
// set: per-user risk scores, nearest-neighbor similarity, density-based
// auto-categorization, and correlation-based root-cause hypotheses.
//
// Every method is a pure function of its inputs. The engine holds only
// tuning constants, so independent calls may run concurrently over the
// same immutable record slice.
package analytics

import (
	"math"
	"time"
)

// Options holds the engine's tuning constants. The defaults mirror the
// values the analytics were calibrated with; they are exposed as knobs
// rather than re-derived.
type Options struct {
	// MaxFeatures caps the TF-IDF vocabulary (unigrams + bigrams).
	MaxFeatures int

	// ClusterEps is the cosine-distance neighborhood radius for
	// auto-categorization; ClusterMinSize the minimum dense neighborhood.
	ClusterEps     float64
	ClusterMinSize int

	// BurstWindow is the wall-clock span of a temporal burst and
	// BurstLookahead how many subsequent records each record scans.
	BurstWindow    time.Duration
	BurstLookahead int

	// RepetitionMin is both the minimum record count for a user to be
	// considered and the minimum dominant-type count for a repetition
	// hypothesis.
	RepetitionMin int

	// CoOccurrenceMin and CoOccurrenceMinRatio gate type-pair hypotheses.
	CoOccurrenceMin      int
	CoOccurrenceMinRatio float64

	// TrendSensitivity scales the daily-count slope when mapping it onto
	// the 0-10 trend factor (score = 5 + slope*sensitivity, clamped).
	TrendSensitivity float64

	// TopCorrelations truncates the merged correlation list.
	TopCorrelations int
}

// DefaultOptions returns the documented default tuning constants.
func DefaultOptions() Options {
	return Options{
		MaxFeatures:          1000,
		ClusterEps:           0.3,
		ClusterMinSize:       2,
		BurstWindow:          30 * time.Minute,
		BurstLookahead:       9,
		RepetitionMin:        3,
		CoOccurrenceMin:      3,
		CoOccurrenceMinRatio: 0.3,
		TrendSensitivity:     2.0,
		TopCorrelations:      10,
	}
}

// Engine runs the analytic components over immutable record sets.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine, filling zero-valued options with defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = def.MaxFeatures
	}
	if opts.ClusterEps <= 0 {
		opts.ClusterEps = def.ClusterEps
	}
	if opts.ClusterMinSize <= 0 {
		opts.ClusterMinSize = def.ClusterMinSize
	}
	if opts.BurstWindow <= 0 {
		opts.BurstWindow = def.BurstWindow
	}
	if opts.BurstLookahead <= 0 {
		opts.BurstLookahead = def.BurstLookahead
	}
	if opts.RepetitionMin <= 0 {
		opts.RepetitionMin = def.RepetitionMin
	}
	if opts.CoOccurrenceMin <= 0 {
		opts.CoOccurrenceMin = def.CoOccurrenceMin
	}
	if opts.CoOccurrenceMinRatio <= 0 {
		opts.CoOccurrenceMinRatio = def.CoOccurrenceMinRatio
	}
	if opts.TrendSensitivity <= 0 {
		opts.TrendSensitivity = def.TrendSensitivity
	}
	if opts.TopCorrelations <= 0 {
		opts.TopCorrelations = def.TopCorrelations
	}
	return &Engine{opts: opts}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
