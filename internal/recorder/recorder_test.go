package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"FinStream/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordBacktestAndRecentRuns(t *testing.T) {
	r := openTemp(t)
	res := model.BacktestResult{
		Window:    21,
		Reference: "SPY",
		Info: []model.BacktestRow{
			{Ticker: "SPY", Gain: 2, Beta: 1, Sharpe: 1.2},
			{Ticker: model.PortfolioTicker, Gain: 3.5, Delta: 1.5, Beta: math.NaN(), Sharpe: math.Inf(1)},
		},
	}
	first := Run{ID: "run-1", At: time.Unix(1700000000, 0)}
	second := NewRun()
	if err := r.RecordBacktest(first, res); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := r.RecordBacktest(second, res); err != nil {
		t.Fatalf("record second: %v", err)
	}

	runs, err := r.RecentRuns(10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != "run-1" {
		t.Errorf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].PortfolioGain != 3.5 || runs[0].Delta != 1.5 || runs[0].Window != 21 {
		t.Errorf("unexpected summary %+v", runs[0])
	}

	var nulls int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM backtest_rows WHERE beta IS NULL AND sharpe IS NULL`).Scan(&nulls); err != nil {
		t.Fatalf("count nulls: %v", err)
	}
	if nulls != 2 {
		t.Errorf("expected NaN/Inf stored as NULL twice, got %d", nulls)
	}
}

func TestRecordPatternsDeduplicates(t *testing.T) {
	r := openTemp(t)
	hit := model.PatternHit{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Ticker: "AAPL", Rule: "Hammer", Value: 100}
	for i := 0; i < 3; i++ {
		if err := r.RecordPatterns(NewRun(), model.Bullish, []model.PatternHit{hit}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pattern_hits`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stored hit, got %d", n)
	}
}

func TestRecordSummary(t *testing.T) {
	r := openTemp(t)
	rows := []model.SummaryRow{{Ticker: "SPY", Price: 500, PE: math.NaN(), RSI: 45, CCI: -20}}
	if err := r.RecordSummary(NewRun(), rows); err != nil {
		t.Fatalf("record summary: %v", err)
	}
	var pe *float64
	if err := r.db.QueryRow(`SELECT pe FROM summary_rows WHERE ticker = 'SPY'`).Scan(&pe); err != nil {
		t.Fatalf("query: %v", err)
	}
	if pe != nil {
		t.Errorf("expected NULL P/E, got %v", *pe)
	}
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	if err := rec.RecordBacktest(NewRun(), model.BacktestResult{}); err != nil {
		t.Errorf("noop returned error: %v", err)
	}
	if runs, _ := rec.RecentRuns(5); len(runs) != 0 {
		t.Errorf("noop should have no runs")
	}
}
