// Package metric measures the bot: Prometheus series for the live machines and
// performance statistics over the resolved rounds.
package metric

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval of a measure
type Interval struct {
	Lower  float64
	Upper  float64
	Mean   float64
	StdDev float64
}

// Bootstrap resamples values with replacement, applies measure to each
// resample and returns the confidence interval of the results.
func Bootstrap(values []float64, measure func([]float64) float64, resamples int, confidence float64, rng *rand.Rand) Interval {
	if len(values) == 0 || resamples <= 0 {
		return Interval{}
	}

	results := make([]float64, resamples)
	sample := make([]float64, len(values))
	for i := range results {
		for j := range sample {
			sample[j] = values[rng.Intn(len(values))]
		}
		results[i] = measure(sample)
	}

	sort.Float64s(results)
	tail := (1 - confidence) / 2

	mean, stdDev := stat.MeanStdDev(results, nil)
	return Interval{
		Lower:  stat.Quantile(tail, stat.LinInterp, results, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, results, nil),
		Mean:   mean,
		StdDev: stdDev,
	}
}
