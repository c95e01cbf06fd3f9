// Package seriesmath holds small numeric helpers over float series.
// Edge cases follow IEEE semantics: undefined results are NaN and are
// propagated rather than reported as errors.
package seriesmath

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyInput is returned by reductions that have no value for an empty series.
var ErrEmptyInput = errors.New("empty input series")

// MaxDrawdown returns the most negative difference between a value and the
// running maximum before it. A non-decreasing series yields 0.
func MaxDrawdown(s []float64) (float64, error) {
	if len(s) == 0 {
		return 0, ErrEmptyInput
	}
	peak := s[0]
	mdd := 0.0
	for _, v := range s {
		if v > peak {
			peak = v
		}
		if d := v - peak; d < mdd {
			mdd = d
		}
		if math.IsNaN(v) {
			return math.NaN(), nil
		}
	}
	return mdd, nil
}

// PercentChange returns (s[i]-s[i-lag])/s[i-lag] for i >= lag. The result has
// len(s)-lag entries, or none when lag >= len(s).
func PercentChange(s []float64, lag int) []float64 {
	if lag <= 0 || lag >= len(s) {
		return []float64{}
	}
	out := make([]float64, len(s)-lag)
	for i := lag; i < len(s); i++ {
		out[i-lag] = (s[i] - s[i-lag]) / s[i-lag]
	}
	return out
}

// TrailingWindow returns a copy of the last min(n, len(s)) elements.
func TrailingWindow(s []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n > len(s) {
		n = len(s)
	}
	return append([]float64(nil), s[len(s)-n:]...)
}

// Shift adds c to every element.
func Shift(s []float64, c float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v + c
	}
	return out
}

// Mean is the arithmetic mean, NaN for empty input.
func Mean(s []float64) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return stat.Mean(s, nil)
}

// SampleStdev is the unbiased (N-1) standard deviation, NaN below two samples.
func SampleStdev(s []float64) float64 {
	if len(s) < 2 {
		return math.NaN()
	}
	return stat.StdDev(s, nil)
}

// Max returns the largest element, NaN for empty input or when any element is NaN.
func Max(s []float64) float64 {
	return extreme(s, func(a, b float64) bool { return a > b })
}

// Min returns the smallest element, NaN for empty input or when any element is NaN.
func Min(s []float64) float64 {
	return extreme(s, func(a, b float64) bool { return a < b })
}

func extreme(s []float64, better func(a, b float64) bool) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	best := s[0]
	for _, v := range s {
		if math.IsNaN(v) {
			return math.NaN()
		}
		if better(v, best) {
			best = v
		}
	}
	return best
}

// Last returns the final element, NaN for empty input.
func Last(s []float64) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}
