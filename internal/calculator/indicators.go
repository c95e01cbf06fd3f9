// Package calculator computes technical indicators over full price histories.
// Every function returns a slice the length of its input with NaN for the
// warm-up entries, so a value never depends on where the caller later trims.
package calculator

import (
	"fmt"
	"math"

	"FinStream/internal/model"
)

// Params carries indicator periods. It is a plain value; callers pass a copy.
type Params struct {
	MAPeriods       []int
	BollingerPeriod int
	BollingerMult   float64
	RSIPeriod       int
	CCIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
}

// DefaultParams returns the conventional indicator settings.
func DefaultParams() Params {
	return Params{
		MAPeriods:       []int{20, 60, 120},
		BollingerPeriod: 20,
		BollingerMult:   2,
		RSIPeriod:       14,
		CCIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
	}
}

// Compute builds the indicator bundle for a series over its full history.
func Compute(s model.Series, p Params) (model.IndicatorSet, error) {
	if err := s.Validate(); err != nil {
		return model.IndicatorSet{}, err
	}
	dates := s.Dates()
	closes := s.Closes()

	set := model.IndicatorSet{
		Ticker: s.Symbol,
		Close:  model.NewIndicatorSeries("Close", dates, closes),
	}
	for _, period := range p.MAPeriods {
		set.MA = append(set.MA, model.NewIndicatorSeries(fmt.Sprintf("MA%d", period), dates, SMA(closes, period)))
	}

	upper, middle, lower := Bollinger(closes, p.BollingerPeriod, p.BollingerMult)
	set.Upper = model.NewIndicatorSeries("Upper", dates, upper)
	set.Middle = model.NewIndicatorSeries("Middle", dates, middle)
	set.Lower = model.NewIndicatorSeries("Lower", dates, lower)

	set.RSI = model.NewIndicatorSeries("RSI", dates, RSI(closes, p.RSIPeriod))
	set.CCI = model.NewIndicatorSeries("CCI", dates, CCI(s.Highs(), s.Lows(), closes, p.CCIPeriod))

	line, sig, hist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	set.MACD = model.NewIndicatorSeries("MACD", dates, line)
	set.MACDSignal = model.NewIndicatorSeries("Signal", dates, sig)
	set.MACDHist = model.NewIndicatorSeries("Histogram", dates, hist)
	return set, nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// maskWarmup replaces the lookback entries that go-talib leaves as zero.
func maskWarmup(values []float64, warm int) []float64 {
	for i := 0; i < warm && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}
