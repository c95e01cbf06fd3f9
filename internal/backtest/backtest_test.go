package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"FinStream/internal/model"
	"FinStream/internal/seriesmath"

	"github.com/markcheno/go-talib"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

var start = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func series(ticker string, closes ...float64) model.Series {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return model.Series{Symbol: ticker, Bars: bars}
}

func set(series ...model.Series) *model.InstrumentSet {
	s := model.NewInstrumentSet()
	for _, ser := range series {
		s.Add(model.Instrument{Ticker: ser.Symbol, Series: ser})
	}
	return s
}

func TestNormalize(t *testing.T) {
	g := Normalize("SPY", series("SPY", 90, 100, 110, 121, 108.9), 4)
	want := []float64{0, 10, 21, 8.9}
	if len(g.Values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(g.Values))
	}
	for i := range want {
		assertClose(t, "normalized", g.Values[i], want[i], 1e-9)
	}
	if !g.Dates[0].Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("anchor date: got %v", g.Dates[0])
	}
}

func TestNormalizeClampsWindow(t *testing.T) {
	g := Normalize("X", series("X", 50, 100), 10)
	if len(g.Values) != 2 || g.Values[0] != 0 {
		t.Errorf("expected full history anchored at 0, got %v", g.Values)
	}
}

func TestRunScenario(t *testing.T) {
	spy := series("SPY", 100, 110, 121, 108.9)
	res, err := Run(set(spy), Request{
		Benchmarks: []string{"SPY"},
		Holdings:   []model.Holding{{Ticker: "SPY", Weight: 1}},
		Window:     4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Info) != 2 || res.Info[1].Ticker != model.PortfolioTicker {
		t.Fatalf("expected benchmark then portfolio rows, got %+v", res.Info)
	}
	row := res.Info[0]
	assertClose(t, "gain", row.Gain, 8.9, 1e-9)
	assertClose(t, "delta", row.Delta, 0, 1e-12)
	assertClose(t, "best", row.Best, 21, 1e-9)
	assertClose(t, "worst", row.Worst, 0, 1e-12)
	assertClose(t, "mdd", row.MaxDrawdown, -12.1, 1e-9)
	assertClose(t, "beta with itself", row.Beta, 1, 1e-9)

	// sample stdev of 0,10,21,8.9
	mean := (0 + 10 + 21 + 8.9) / 4
	ss := math.Pow(0-mean, 2) + math.Pow(10-mean, 2) + math.Pow(21-mean, 2) + math.Pow(8.9-mean, 2)
	assertClose(t, "stdev", row.Stdev, math.Sqrt(ss/3), 1e-9)

	// returns of 100,110,121,108.9 are 0.1, 0.1, -0.1
	r := []float64{0.1, 0.1, -0.1}
	rm := (r[0] + r[1] + r[2]) / 3
	rsd := math.Sqrt((math.Pow(r[0]-rm, 2) + math.Pow(r[1]-rm, 2) + math.Pow(r[2]-rm, 2)) / 2)
	assertClose(t, "sharpe", row.Sharpe, rm/rsd*math.Sqrt(252), 1e-6)

	// a single-member portfolio equals the member
	port := res.Info[1]
	assertClose(t, "portfolio gain", port.Gain, row.Gain, 1e-9)
	assertClose(t, "portfolio mdd", port.MaxDrawdown, row.MaxDrawdown, 1e-9)
	if len(res.Source) != 8 {
		t.Errorf("expected 8 source rows, got %d", len(res.Source))
	}
}

func TestRunOffsettingHoldings(t *testing.T) {
	res, err := Run(set(
		series("SPY", 100, 101, 102),
		series("A", 100, 105, 110),
		series("B", 100, 95, 90),
	), Request{
		Benchmarks:     []string{"SPY"},
		Holdings:       []model.Holding{{Ticker: "A", Weight: 50}, {Ticker: "B", Weight: 50}},
		Window:         3,
		IncludeMembers: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"SPY", "A", "B", model.PortfolioTicker}
	for i, row := range res.Info {
		if row.Ticker != wantOrder[i] {
			t.Errorf("row %d: expected %s, got %s", i, wantOrder[i], row.Ticker)
		}
	}
	port := res.Info[3]
	assertClose(t, "portfolio gain", port.Gain, 0, 1e-9)
	assertClose(t, "portfolio delta", port.Delta, -2, 1e-9)
	assertClose(t, "weighted mean of members", port.Gain, (res.Info[1].Gain+res.Info[2].Gain)/2, 1e-9)
	if !math.IsNaN(port.Sharpe) {
		t.Errorf("flat portfolio sharpe should be NaN, got %v", port.Sharpe)
	}
}

func TestRunUnequalWeights(t *testing.T) {
	res, err := Run(set(
		series("SPY", 100, 100),
		series("A", 100, 130),
		series("B", 100, 100),
	), Request{
		Benchmarks: []string{"SPY"},
		Holdings:   []model.Holding{{Ticker: "A", Weight: 1}, {Ticker: "B", Weight: 2}},
		Window:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "weighted gain", res.Info[len(res.Info)-1].Gain, 10, 1e-9)
	if !math.IsNaN(res.Info[0].Beta) {
		t.Errorf("flat reference beta should be NaN, got %v", res.Info[0].Beta)
	}
}

func TestRunErrors(t *testing.T) {
	s := set(series("SPY", 1, 2))
	if _, err := Run(s, Request{Window: 2}); !errors.Is(err, ErrNoBenchmark) {
		t.Errorf("expected ErrNoBenchmark, got %v", err)
	}
	_, err := Run(s, Request{Benchmarks: []string{"SPY"}, Holdings: []model.Holding{{Ticker: "NOPE", Weight: 1}}, Window: 2})
	if !errors.Is(err, ErrUnknownTicker) {
		t.Errorf("expected ErrUnknownTicker, got %v", err)
	}
	empty := set(model.Series{Symbol: "EMPTY"})
	if _, err := Run(empty, Request{Benchmarks: []string{"EMPTY"}, Window: 2}); !errors.Is(err, model.ErrMalformedSeries) {
		t.Errorf("expected ErrMalformedSeries, got %v", err)
	}
}

func TestAggregateMissingDate(t *testing.T) {
	a := Normalize("A", series("A", 100, 110, 120), 3)
	b := Normalize("B", series("B", 100, 110), 2)
	got := Aggregate([]Weighted{{a, 1}, {b, 1}})
	if len(got.Values) != 3 {
		t.Fatalf("expected dates of first member, got %d", len(got.Values))
	}
	if !math.IsNaN(got.Values[2]) {
		t.Errorf("date missing from B should be NaN, got %v", got.Values[2])
	}
	if zero := Aggregate([]Weighted{{a, 0}}); !math.IsNaN(zero.Values[0]) {
		t.Errorf("zero total weight should be NaN, got %v", zero.Values[0])
	}
}

func TestStatsWithGapIsUndefined(t *testing.T) {
	data := []float64{0, 1.5, math.NaN(), 2}
	row := Stats("Portfolio", data, []float64{0, 1, 2, 3}, 0)
	assertClose(t, "gain", row.Gain, 2, 1e-12)
	for name, v := range map[string]float64{"stdev": row.Stdev, "best": row.Best, "worst": row.Worst, "mdd": row.MaxDrawdown} {
		if !math.IsNaN(v) {
			t.Errorf("%s over a series with a gap should be NaN, got %v", name, v)
		}
	}
}

func TestBetaScaled(t *testing.T) {
	ref := []float64{0, 1, -1, 2, 0.5}
	data := make([]float64, len(ref))
	// data returns are exactly twice the reference returns when built from levels
	level := 100.0
	for i := 1; i < len(ref); i++ {
		r := (ref[i]+100)/(ref[i-1]+100) - 1
		level *= 1 + 2*r
		data[i] = level - 100
	}
	assertClose(t, "beta", Beta(ref, data, 0), 2, 1e-9)
	assertClose(t, "beta windowed", Beta(ref, data, 3), 2, 1e-9)
}

func TestBetaMatchesTalibWindow(t *testing.T) {
	ref := []float64{0, 1.2, -0.4, 2.1, 1.7, 3.0, 2.2, 4.1, 3.5, 5.0, 4.4, 6.3}
	data := []float64{0, -0.8, 0.9, -1.5, 0.2, -2.4, -0.6, -3.1, -1.9, -4.6, -2.8, -5.5}

	want := talib.Beta(seriesmath.Shift(ref, 100), seriesmath.Shift(data, 100), 5)
	assertClose(t, "beta over 5 returns", Beta(ref, data, 5), want[len(want)-1], 1e-9)

	whole := Beta(ref, data, 0)
	if math.Abs(whole-Beta(ref, data, -1)) > 1e-12 {
		t.Errorf("negative period should use the whole window: %v vs %v", Beta(ref, data, -1), whole)
	}
	if math.Abs(whole-want[len(want)-1]) < 1e-6 {
		t.Errorf("whole-window beta should differ from the 5-return beta here, both %v", whole)
	}
}
