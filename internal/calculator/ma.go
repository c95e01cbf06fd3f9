package calculator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA computes the simple moving average over the full input. The first
// period-1 entries are NaN.
func SMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nanSlice(len(closes))
	}
	if period == 1 {
		return append([]float64(nil), closes...)
	}
	return maskWarmup(talib.Sma(closes, period), period-1)
}

// EMA computes the exponential moving average seeded by the SMA of the first
// period values. The first period-1 entries are NaN.
func EMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nanSlice(len(closes))
	}
	if period == 1 {
		return append([]float64(nil), closes...)
	}
	return maskWarmup(talib.Ema(closes, period), period-1)
}

// Bollinger returns the upper, middle and lower bands: SMA(period) plus and
// minus mult population standard deviations.
func Bollinger(closes []float64, period int, mult float64) (upper, middle, lower []float64) {
	if period < 2 || len(closes) < period || math.IsNaN(mult) || mult < 0 {
		n := len(closes)
		return nanSlice(n), nanSlice(n), nanSlice(n)
	}
	upper, middle, lower = talib.BBands(closes, period, mult, mult, talib.SMA)
	warm := period - 1
	return maskWarmup(upper, warm), maskWarmup(middle, warm), maskWarmup(lower, warm)
}
