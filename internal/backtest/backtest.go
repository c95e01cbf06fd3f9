// Package backtest compares a weighted portfolio against benchmark
// instruments over a trailing window of daily closes.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"FinStream/internal/model"
	"FinStream/internal/seriesmath"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoBenchmark is returned when no reference instrument is configured.
	ErrNoBenchmark = errors.New("backtest needs at least one benchmark")
	// ErrUnknownTicker is returned when a requested ticker was not collected.
	ErrUnknownTicker = errors.New("ticker not in instrument set")
)

const tradingDaysPerYear = 252

// Request describes one backtest run. It is passed by value and never mutated.
type Request struct {
	Benchmarks []string
	Holdings   []model.Holding
	// Window is the number of trailing bars, anchored at close[-Window].
	Window int
	// BetaPeriod limits beta to the most recent returns; 0 or less uses the whole window.
	BetaPeriod int
	// IncludeMembers adds a row per holding between the benchmarks and the portfolio.
	IncludeMembers bool
}

// Gain is a normalized series: cumulative percent gain since the anchor bar.
type Gain struct {
	Metric string
	Dates  []time.Time
	Values []float64
}

// Normalize rebases the trailing n closes of s to percent gain relative to
// the first of them, so the anchor reads 0.
func Normalize(metric string, s model.Series, n int) Gain {
	tail := s.Tail(n)
	g := Gain{Metric: metric, Dates: tail.Dates(), Values: tail.Closes()}
	if len(g.Values) == 0 {
		return g
	}
	anchor := g.Values[0]
	for i, v := range g.Values {
		g.Values[i] = (v/anchor - 1) * 100
	}
	return g
}

// Weighted pairs a normalized member with its portfolio weight.
type Weighted struct {
	Gain   Gain
	Weight float64
}

// Aggregate combines members into the portfolio series on the dates of the
// first member: the weighted sum divided by the total weight. A member with no
// bar on a date makes that date NaN; a zero total weight makes every date NaN.
func Aggregate(members []Weighted) Gain {
	out := Gain{Metric: model.PortfolioTicker}
	if len(members) == 0 {
		return out
	}
	out.Dates = append([]time.Time(nil), members[0].Gain.Dates...)
	out.Values = make([]float64, len(out.Dates))

	total := 0.0
	for _, m := range members {
		total += m.Weight
	}
	for _, m := range members {
		byDate := make(map[int64]float64, len(m.Gain.Dates))
		for i, d := range m.Gain.Dates {
			byDate[d.Unix()] = m.Gain.Values[i]
		}
		for i, d := range out.Dates {
			v, ok := byDate[d.Unix()]
			if !ok {
				v = math.NaN()
			}
			out.Values[i] += v * m.Weight
		}
	}
	for i := range out.Values {
		out.Values[i] /= total
	}
	return out
}

// Run normalizes benchmarks and holdings, builds the portfolio series and
// computes one statistics row per series. The first benchmark is the
// reference for delta and beta; the portfolio row comes last.
func Run(set *model.InstrumentSet, req Request) (model.BacktestResult, error) {
	if len(req.Benchmarks) == 0 {
		return model.BacktestResult{}, ErrNoBenchmark
	}

	var gains []Gain
	for _, ticker := range req.Benchmarks {
		inst, err := lookup(set, ticker)
		if err != nil {
			return model.BacktestResult{}, err
		}
		gains = append(gains, Normalize(ticker, inst.Series, req.Window))
	}

	members := make([]Weighted, 0, len(req.Holdings))
	for _, h := range req.Holdings {
		inst, err := lookup(set, h.Ticker)
		if err != nil {
			return model.BacktestResult{}, err
		}
		members = append(members, Weighted{Gain: Normalize(h.Ticker, inst.Series, req.Window), Weight: h.Weight})
	}
	if req.IncludeMembers {
		for _, m := range members {
			gains = append(gains, m.Gain)
		}
	}
	if len(members) > 0 {
		gains = append(gains, Aggregate(members))
	}

	ref := gains[0].Values
	result := model.BacktestResult{Window: req.Window, Reference: req.Benchmarks[0]}
	for _, g := range gains {
		for i, d := range g.Dates {
			result.Source = append(result.Source, model.GainPoint{Metric: g.Metric, Time: d, Gain: g.Values[i]})
		}
		result.Info = append(result.Info, Stats(g.Metric, g.Values, ref, req.BetaPeriod))
	}
	return result, nil
}

// Stats computes the statistics row of one normalized series against the
// reference series.
func Stats(ticker string, data, ref []float64, betaPeriod int) model.BacktestRow {
	row := model.BacktestRow{
		Ticker: ticker,
		Gain:   seriesmath.Last(data),
		Stdev:  seriesmath.SampleStdev(data),
		Best:   seriesmath.Max(data),
		Worst:  seriesmath.Min(data),
		Beta:   Beta(ref, data, betaPeriod),
		Sharpe: Sharpe(data),
	}
	row.Delta = row.Gain - seriesmath.Last(ref)
	if mdd, err := seriesmath.MaxDrawdown(data); err == nil {
		row.MaxDrawdown = mdd
	} else {
		row.MaxDrawdown = math.NaN()
	}
	return row
}

// Beta is the regression slope of the series' daily returns on the reference
// returns, cov(ref, x) / var(ref). Returns are taken on gain+100 so they are
// relative to the anchor price level. Series are aligned on their tails and
// only the last period returns are used; period <= 0 uses all of them.
func Beta(ref, data []float64, period int) float64 {
	x := returns(ref)
	y := returns(data)
	n := min(len(x), len(y))
	if period > 0 {
		n = min(n, period)
	}
	if n < 2 {
		return math.NaN()
	}
	x, y = x[len(x)-n:], y[len(y)-n:]
	v := stat.Variance(x, nil)
	if v == 0 || math.IsNaN(v) {
		return math.NaN()
	}
	return stat.Covariance(x, y, nil) / v
}

// Sharpe is the annualized ratio of mean daily return to its sample standard
// deviation, with no risk-free rate.
func Sharpe(data []float64) float64 {
	r := returns(data)
	sd := seriesmath.SampleStdev(r)
	if sd == 0 || math.IsNaN(sd) {
		return math.NaN()
	}
	return seriesmath.Mean(r) / sd * math.Sqrt(tradingDaysPerYear)
}

func returns(gain []float64) []float64 {
	return seriesmath.PercentChange(seriesmath.Shift(gain, 100), 1)
}

func lookup(set *model.InstrumentSet, ticker string) (model.Instrument, error) {
	inst, ok := set.Get(ticker)
	if !ok {
		return model.Instrument{}, fmt.Errorf("%s: %w", ticker, ErrUnknownTicker)
	}
	if err := inst.Series.Validate(); err != nil {
		return model.Instrument{}, err
	}
	return inst, nil
}
