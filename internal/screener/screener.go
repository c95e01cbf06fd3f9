// Package screener builds the portfolio summary table and flags instruments
// whose momentum oscillators agree on an oversold or overbought reading.
package screener

import (
	"log"
	"math"
	"sort"

	"FinStream/internal/calculator"
	"FinStream/internal/model"
)

// Zone is the momentum classification of one summary row.
type Zone string

const (
	ZoneOversold   Zone = "OVERSOLD"
	ZoneOverbought Zone = "OVERBOUGHT"
	ZoneNeutral    Zone = "NEUTRAL"
)

// Thresholds bound the RSI and CCI readings.
type Thresholds struct {
	RSILow, RSIHigh float64
	CCILow, CCIHigh float64
}

// DefaultThresholds returns the conventional 30/70 and -100/100 bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{RSILow: 30, RSIHigh: 70, CCILow: -100, CCIHigh: 100}
}

// Classify maps a row to a zone. Both oscillators must agree; NaN readings are neutral.
func (t Thresholds) Classify(r model.SummaryRow) Zone {
	switch {
	case r.RSI < t.RSILow && r.CCI < t.CCILow:
		return ZoneOversold
	case r.RSI > t.RSIHigh && r.CCI > t.CCIHigh:
		return ZoneOverbought
	}
	return ZoneNeutral
}

// Summarize computes one row per ticker present in the set, sorted by RSI
// ascending with undefined RSI last.
func Summarize(set *model.InstrumentSet, tickers []string, p calculator.Params) []model.SummaryRow {
	rows := make([]model.SummaryRow, 0, len(tickers))
	for _, ticker := range tickers {
		inst, ok := set.Get(ticker)
		if !ok {
			continue
		}
		rows = append(rows, summarize(inst, p))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].RSI, rows[j].RSI
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a < b
	})
	return rows
}

func summarize(inst model.Instrument, p calculator.Params) model.SummaryRow {
	q := inst.Quote
	s := inst.Series
	row := model.SummaryRow{
		Ticker:        inst.Ticker,
		Price:         q.Price,
		ChangePercent: model.Value(q.ChangePercent),
		PE:            model.Value(q.TrailingPE),
		High52wPct:    math.NaN(),
		Low52wPct:     math.NaN(),
		RSI:           math.NaN(),
		CCI:           math.NaN(),
	}

	high, low := model.Value(q.FiftyTwoWeekHigh), model.Value(q.FiftyTwoWeekLow)
	if math.IsNaN(high) || math.IsNaN(low) {
		if h, l, err := calculator.Calculate52WeekRange(s.Bars); err != nil {
			log.Printf("[WARN] 52-week range for %s failed: %v", inst.Ticker, err)
		} else {
			high, low = h, l
		}
	}
	row.High52wPct = calculator.DistancePercent(q.Price, high)
	row.Low52wPct = calculator.DistancePercent(q.Price, low)

	if s.Len() > 0 {
		closes := s.Closes()
		row.RSI = last(calculator.RSI(closes, p.RSIPeriod))
		row.CCI = last(calculator.CCI(s.Highs(), s.Lows(), closes, p.CCIPeriod))
	}
	return row
}

// Result groups rows by zone, keeping summary order.
type Result struct {
	Oversold   []model.SummaryRow
	Overbought []model.SummaryRow
}

// Screen picks the oversold and overbought rows.
func Screen(rows []model.SummaryRow, t Thresholds) Result {
	var res Result
	for _, r := range rows {
		switch t.Classify(r) {
		case ZoneOversold:
			res.Oversold = append(res.Oversold, r)
		case ZoneOverbought:
			res.Overbought = append(res.Overbought, r)
		}
	}
	return res
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}
