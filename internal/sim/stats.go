package sim

import (
	"math"
	"slices"
)

// Stats describes one per-trial metric (extractions to clear, assists used,
// final score) across a run.
type Stats struct {
	N      int     `json:"n"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Samples are in trial order, for histograms.
	Samples []int `json:"-"`
}

// calcStats summarizes per-trial samples. Variance is the population
// variance; a run is the whole population of interest, not a sample of it.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	sorted := slices.Sorted(slices.Values(xs))
	return Stats{
		N:       n,
		Min:     sorted[0],
		Max:     sorted[n-1],
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     quantile(sorted, 0.50),
		P90:     quantile(sorted, 0.90),
		P99:     quantile(sorted, 0.99),
		Samples: xs,
	}
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []int, q float64) float64 {
	last := len(sorted) - 1
	switch {
	case last == 0 || q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[last])
	}
	pos := q * float64(last)
	i := int(pos)
	f := pos - float64(i)
	return float64(sorted[i])*(1-f) + float64(sorted[i+1])*f
}
