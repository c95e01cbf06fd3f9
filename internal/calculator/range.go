package calculator

import (
	"errors"
	"math"

	"FinStream/internal/model"
)

const tradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(bars []model.PriceBar) (high, low float64, err error) {
	return rangeOver(bars, tradingDaysPerYear)
}

func rangeOver(bars []model.PriceBar, days int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	start := len(bars) - days
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos)), nil
}

// DistancePercent returns how far price sits from ref, in percent of ref.
// A zero reference is undefined and yields NaN.
func DistancePercent(price, ref float64) float64 {
	if ref == 0 {
		return math.NaN()
	}
	return (price - ref) / ref * 100
}
