// Package confidence turns windows of feedback signals into trust scores and
// descriptive rate aggregates. Everything here is pure: identical input
// always produces identical output, so aggregates are rebuildable caches,
// never sources of truth.
package confidence

import (
	"math"
	"time"

	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
)

const secondsPerDay = 86400

// Weights maps signal kinds to evidence weights in [-1, 1]. Approvals carry
// positive weight, reversals negative; magnitude reflects severity.
type Weights map[signals.Kind]float64

// WeightsFromConfig converts the string-keyed config table to typed Weights.
func WeightsFromConfig(table map[string]float64) Weights {
	w := make(Weights, len(table))
	for kind, weight := range table {
		w[signals.Kind(kind)] = weight
	}
	return w
}

// Score computes the composite trust score for a signal window.
//
// Each signal's weight is decayed exponentially by age with the given
// half-life, accumulated, and normalized into [0, 1]. A sample-size penalty
// of min(n/sampleFloor, 1) then discounts small windows so that a handful of
// lucky approvals cannot read as high trust.
func Score(sigs []signals.Signal, w Weights, halfLifeDays float64, sampleFloor int, now time.Time) float64 {
	if len(sigs) == 0 {
		return 0
	}

	var weightedSum, weightTotal float64
	for _, sig := range sigs {
		weight := w[sig.Kind]
		daysOld := now.Sub(sig.CreatedAt).Seconds() / secondsPerDay
		if daysOld < 0 {
			daysOld = 0
		}

		timeWeight := math.Pow(0.5, daysOld/halfLifeDays)
		weightedSum += weight * timeWeight
		weightTotal += math.Abs(weight) * timeWeight
	}

	if weightTotal == 0 {
		return 0
	}

	raw := (weightedSum/weightTotal + 1) / 2
	sampleFactor := math.Min(float64(len(sigs))/float64(sampleFloor), 1)

	return clamp01(raw * sampleFactor)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
