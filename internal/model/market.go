package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSeries is returned when a price history cannot be used for analysis.
var ErrMalformedSeries = errors.New("malformed price series")

// PriceBar represents a single candlestick bar.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the price history of one instrument, ascending by time.
type Series struct {
	Symbol string
	Bars   []PriceBar
}

// Validate reports ErrMalformedSeries for empty or non-finite histories.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%s: %w: no bars", s.Symbol, ErrMalformedSeries)
	}
	for i, b := range s.Bars {
		if !finite(b.High) || !finite(b.Low) || !finite(b.Close) {
			return fmt.Errorf("%s: %w: non-finite bar at %d", s.Symbol, ErrMalformedSeries, i)
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("%s: %w: bar %d out of order", s.Symbol, ErrMalformedSeries, i)
		}
	}
	return nil
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Tail returns a series holding the last n bars (all of them when n exceeds the length).
func (s Series) Tail(n int) Series {
	if n < 0 {
		n = 0
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	return Series{Symbol: s.Symbol, Bars: s.Bars[len(s.Bars)-n:]}
}

func (s Series) Closes() []float64 { return s.column(func(b PriceBar) float64 { return b.Close }) }
func (s Series) Opens() []float64  { return s.column(func(b PriceBar) float64 { return b.Open }) }
func (s Series) Highs() []float64  { return s.column(func(b PriceBar) float64 { return b.High }) }
func (s Series) Lows() []float64   { return s.column(func(b PriceBar) float64 { return b.Low }) }

// Dates returns the bar timestamps.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Time
	}
	return out
}

func (s Series) column(pick func(PriceBar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = pick(b)
	}
	return out
}

// Quote is the latest snapshot of an instrument. Pointer fields are optional
// and may be absent for some instrument types (e.g. no P/E for indices).
type Quote struct {
	Symbol           string
	Name             string
	QuoteType        string
	MarketState      string
	Price            float64
	PreviousClose    *float64
	ChangePercent    *float64
	TrailingPE       *float64
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
	FetchedAt        time.Time
}

// IsRegularSession reports whether the quote was taken during regular trading hours.
func (q Quote) IsRegularSession() bool { return q.MarketState == "REGULAR" }

// Value unwraps an optional number, mapping absence to NaN.
func Value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 { return &v }

// Instrument bundles everything fetched for one ticker.
type Instrument struct {
	Ticker string
	Quote  Quote
	Series Series
}

// InstrumentSet is the per-cycle collection of instruments, keyed by ticker
// and remembering insertion order.
type InstrumentSet struct {
	order []string
	items map[string]Instrument
}

// NewInstrumentSet creates an empty set.
func NewInstrumentSet() *InstrumentSet {
	return &InstrumentSet{items: make(map[string]Instrument)}
}

// Add inserts or replaces an instrument.
func (s *InstrumentSet) Add(inst Instrument) {
	if _, ok := s.items[inst.Ticker]; !ok {
		s.order = append(s.order, inst.Ticker)
	}
	s.items[inst.Ticker] = inst
}

// Get looks up an instrument by ticker.
func (s *InstrumentSet) Get(ticker string) (Instrument, bool) {
	inst, ok := s.items[ticker]
	return inst, ok
}

// Tickers returns tickers in insertion order.
func (s *InstrumentSet) Tickers() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of instruments.
func (s *InstrumentSet) Len() int { return len(s.order) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
