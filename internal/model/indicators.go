package model

import (
	"math"
	"time"
)

// Point is one timestamped value of a derived series. Value is NaN where undefined.
type Point struct {
	Time  time.Time
	Value float64
}

// IndicatorSeries is a named numeric series aligned with a price history.
type IndicatorSeries struct {
	Name   string
	Points []Point
}

// NewIndicatorSeries zips dates and values; the shorter length wins.
func NewIndicatorSeries(name string, dates []time.Time, values []float64) IndicatorSeries {
	n := len(dates)
	if len(values) < n {
		n = len(values)
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{Time: dates[i], Value: values[i]}
	}
	return IndicatorSeries{Name: name, Points: pts}
}

// Tail returns the last n points.
func (s IndicatorSeries) Tail(n int) IndicatorSeries {
	if n < 0 {
		n = 0
	}
	if n > len(s.Points) {
		n = len(s.Points)
	}
	return IndicatorSeries{Name: s.Name, Points: s.Points[len(s.Points)-n:]}
}

// Values returns the numeric column.
func (s IndicatorSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Last returns the most recent value, NaN for an empty series.
func (s IndicatorSeries) Last() float64 {
	if len(s.Points) == 0 {
		return math.NaN()
	}
	return s.Points[len(s.Points)-1].Value
}

// IndicatorSet holds every indicator computed for one instrument.
type IndicatorSet struct {
	Ticker     string
	Close      IndicatorSeries
	MA         []IndicatorSeries
	Upper      IndicatorSeries
	Middle     IndicatorSeries
	Lower      IndicatorSeries
	RSI        IndicatorSeries
	CCI        IndicatorSeries
	MACD       IndicatorSeries
	MACDSignal IndicatorSeries
	MACDHist   IndicatorSeries
}

// Tail trims every series in the set to the last n points.
func (s IndicatorSet) Tail(n int) IndicatorSet {
	out := s
	out.Close = s.Close.Tail(n)
	out.MA = make([]IndicatorSeries, len(s.MA))
	for i, ma := range s.MA {
		out.MA[i] = ma.Tail(n)
	}
	out.Upper = s.Upper.Tail(n)
	out.Middle = s.Middle.Tail(n)
	out.Lower = s.Lower.Tail(n)
	out.RSI = s.RSI.Tail(n)
	out.CCI = s.CCI.Tail(n)
	out.MACD = s.MACD.Tail(n)
	out.MACDSignal = s.MACDSignal.Tail(n)
	out.MACDHist = s.MACDHist.Tail(n)
	return out
}
