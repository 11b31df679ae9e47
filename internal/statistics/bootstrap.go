// Package statistics puts error bars on rates measured over a handful of
// rounds.
package statistics

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Interval is a bootstrap confidence interval around a sample mean.
type Interval struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Mean      float64 `json:"mean"`
	Level     float64 `json:"confidence_level"`
	Resamples int     `json:"resamples"`
}

// Width is Upper - Lower.
func (iv Interval) Width() float64 {
	return iv.Upper - iv.Lower
}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lower && v <= iv.Upper
}

// DefaultResamples is the number of bootstrap resamples.
const DefaultResamples = 2000

// DefaultLevel is the confidence level used for reports.
const DefaultLevel = 0.95

// Bootstrap computes a percentile-method confidence interval for the mean of
// sample. level must be in (0, 1). With fewer than two values the interval
// collapses onto the mean and no resampling happens.
func Bootstrap(sample []float64, level float64, resamples int, rng *rand.Rand) Interval {
	n := len(sample)
	m := mean(sample)
	if n < 2 || resamples <= 0 {
		return Interval{Lower: m, Upper: m, Mean: m, Level: level}
	}

	means := make([]float64, resamples)
	for i := range resamples {
		sum := 0.0
		for range n {
			sum += sample[rng.IntN(n)]
		}
		means[i] = sum / float64(n)
	}
	sort.Float64s(means)

	alpha := 1.0 - level
	lo := int(math.Floor(alpha / 2.0 * float64(resamples)))
	hi := int(math.Floor((1.0 - alpha/2.0) * float64(resamples)))
	if hi >= resamples {
		hi = resamples - 1
	}

	return Interval{
		Lower:     means[lo],
		Upper:     means[hi],
		Mean:      m,
		Level:     level,
		Resamples: resamples,
	}
}

// RateInterval bootstraps a success rate in percent from per-round outcomes.
// The same seed and outcomes always give the same interval.
func RateInterval(outcomes []bool, seed uint64) Interval {
	sample := make([]float64, len(outcomes))
	for i, ok := range outcomes {
		if ok {
			sample[i] = 100
		}
	}

	rng := rand.New(rand.NewPCG(seed, uint64(len(outcomes))))
	iv := Bootstrap(sample, DefaultLevel, DefaultResamples, rng)
	iv.Lower = round1(iv.Lower)
	iv.Upper = round1(iv.Upper)
	iv.Mean = round1(iv.Mean)
	return iv
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
