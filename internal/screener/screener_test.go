package screener

import (
	"math"
	"testing"
	"time"

	"FinStream/internal/calculator"
	"FinStream/internal/model"
)

func trend(ticker string, n int, step float64) model.Instrument {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, n)
	p := 100.0
	for i := range bars {
		wiggle := 0.3 * float64(i%2)
		bars[i] = model.PriceBar{Time: start.AddDate(0, 0, i), Open: p, High: p + 1 + wiggle, Low: p - 1, Close: p + wiggle}
		p += step
	}
	last := bars[n-1].Close
	return model.Instrument{
		Ticker: ticker,
		Quote:  model.Quote{Symbol: ticker, Price: last, ChangePercent: model.Float(1.5)},
		Series: model.Series{Symbol: ticker, Bars: bars},
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		rsi, cci float64
		want     Zone
	}{
		{25, -150, ZoneOversold},
		{25, -50, ZoneNeutral},
		{75, 150, ZoneOverbought},
		{75, 50, ZoneNeutral},
		{math.NaN(), -200, ZoneNeutral},
	}
	for _, tt := range tests {
		got := th.Classify(model.SummaryRow{RSI: tt.rsi, CCI: tt.cci})
		if got != tt.want {
			t.Errorf("rsi %.0f cci %.0f: expected %q, got %q", tt.rsi, tt.cci, tt.want, got)
		}
	}
}

func TestSummarizeSortsByRSI(t *testing.T) {
	set := model.NewInstrumentSet()
	set.Add(trend("UP", 60, 1))
	set.Add(trend("DOWN", 60, -1))
	set.Add(trend("SHORT", 5, 1))

	rows := Summarize(set, []string{"UP", "DOWN", "SHORT", "NONE"}, calculator.DefaultParams())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Ticker != "DOWN" || rows[1].Ticker != "UP" || rows[2].Ticker != "SHORT" {
		t.Errorf("unexpected order %s,%s,%s", rows[0].Ticker, rows[1].Ticker, rows[2].Ticker)
	}
	if !math.IsNaN(rows[2].RSI) {
		t.Errorf("short history should have undefined RSI")
	}
	if !math.IsNaN(rows[0].PE) {
		t.Errorf("missing P/E should be NaN, got %v", rows[0].PE)
	}
	if rows[1].ChangePercent != 1.5 {
		t.Errorf("unexpected change %v", rows[1].ChangePercent)
	}
	if rows[1].High52wPct > 0 || rows[1].Low52wPct < 0 {
		t.Errorf("price must sit inside its 52-week range: %+v", rows[1])
	}

	res := Screen(rows, DefaultThresholds())
	if len(res.Oversold) != 1 || res.Oversold[0].Ticker != "DOWN" {
		t.Errorf("expected DOWN oversold, got %+v", res.Oversold)
	}
	if len(res.Overbought) != 1 || res.Overbought[0].Ticker != "UP" {
		t.Errorf("expected UP overbought, got %+v", res.Overbought)
	}
}

func TestSummarizeUsesQuoteRange(t *testing.T) {
	inst := trend("X", 30, 1)
	inst.Quote.Price = 90
	inst.Quote.FiftyTwoWeekHigh = model.Float(100)
	inst.Quote.FiftyTwoWeekLow = model.Float(60)
	set := model.NewInstrumentSet()
	set.Add(inst)

	row := Summarize(set, []string{"X"}, calculator.DefaultParams())[0]
	if math.Abs(row.High52wPct-(-10)) > 1e-9 || math.Abs(row.Low52wPct-50) > 1e-9 {
		t.Errorf("unexpected distances %.4f / %.4f", row.High52wPct, row.Low52wPct)
	}
}
