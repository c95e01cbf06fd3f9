package pattern

import (
	"math"

	"FinStream/internal/model"
)

// ----- Tunable thresholds -----

const (
	shadowBodyRatio   = 2.0 // long shadow >= 2x body
	oppositeBodyRatio = 0.5 // short shadow <= 0.5x body
	longBodyPct       = 0.6 // body >= 60% of range
	starBodyPct       = 0.3 // star body <= 30% of range
	soldierBodyPct    = 0.5
)

type candleParts struct {
	Body, Upper, Lower, Range float64
	Mid                       float64
	IsBull, IsBear            bool
}

func parts(b model.PriceBar) candleParts {
	top := math.Max(b.Open, b.Close)
	bottom := math.Min(b.Open, b.Close)
	return candleParts{
		Body:   top - bottom,
		Upper:  b.High - top,
		Lower:  bottom - b.Low,
		Range:  b.High - b.Low,
		Mid:    (b.Open + b.Close) / 2,
		IsBull: b.Close > b.Open,
		IsBear: b.Close < b.Open,
	}
}

func (c candleParts) bodyPct() float64 {
	if c.Range <= 0 {
		return 0
	}
	return c.Body / c.Range
}

// hammerShape: long lower shadow, small upper shadow, real body.
func hammerShape(c candleParts) bool {
	return c.Body > 0 && c.Lower >= shadowBodyRatio*c.Body && c.Upper <= oppositeBodyRatio*c.Body
}

// invertedShape: long upper shadow, small lower shadow, real body.
func invertedShape(c candleParts) bool {
	return c.Body > 0 && c.Upper >= shadowBodyRatio*c.Body && c.Lower <= oppositeBodyRatio*c.Body
}

// downtrend reports two consecutive lower closes before idx.
func downtrend(bars []model.PriceBar, idx int) bool {
	if idx < 3 {
		return false
	}
	return bars[idx-1].Close < bars[idx-2].Close && bars[idx-2].Close < bars[idx-3].Close
}

func uptrend(bars []model.PriceBar, idx int) bool {
	if idx < 3 {
		return false
	}
	return bars[idx-1].Close > bars[idx-2].Close && bars[idx-2].Close > bars[idx-3].Close
}
