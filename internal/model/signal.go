package model

import (
	"fmt"
	"time"
)

// Polarity distinguishes the two pattern catalogs.
type Polarity int

const (
	Bullish Polarity = 1
	Bearish Polarity = -1
)

func (p Polarity) String() string {
	if p == Bearish {
		return "bearish"
	}
	return "bullish"
}

// Matches reports whether a rule output belongs to this polarity.
func (p Polarity) Matches(v int) bool {
	if p == Bearish {
		return v < 0
	}
	return v > 0
}

// PatternHit is one detected candlestick pattern on one bar.
type PatternHit struct {
	Time   time.Time
	Ticker string
	Rule   string
	Value  int
}

// Line renders the hit as a log line; hit lists are ordered by this string.
func (h PatternHit) Line() string {
	return fmt.Sprintf("%s: [%-5s] %s", h.Time.Format("2006-01-02 15:04:05"), h.Ticker, h.Rule)
}

// PatternSignal is the aggregated strength on one bar: positive for bullish
// hit counts, negative for bearish, zero for none.
type PatternSignal struct {
	Time     time.Time
	Strength int
}

// PatternMarker is a chart marker placed at the bar's close.
type PatternMarker struct {
	Time     time.Time
	Price    float64
	Strength int
}
