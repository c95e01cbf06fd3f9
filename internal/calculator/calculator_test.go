package calculator

import (
	"math"
	"testing"
	"time"

	"FinStream/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/4) + float64(i%7)
	}
	return out
}

func makeSeries(closes []float64) model.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:  start.AddDate(0, 0, i),
			Open:  c - 0.5,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return model.Series{Symbol: "TEST", Bars: bars}
}

func TestSMAIsWindowMean(t *testing.T) {
	closes := wave(60)
	period := 20
	sma := SMA(closes, period)
	for i := range closes {
		if i < period-1 {
			if !math.IsNaN(sma[i]) {
				t.Errorf("index %d: expected NaN warm-up, got %v", i, sma[i])
			}
			continue
		}
		sum := 0.0
		for _, v := range closes[i-period+1 : i+1] {
			sum += v
		}
		assertClose(t, "sma", sma[i], sum/float64(period), 1e-9)
	}
}

func TestSMAShortInput(t *testing.T) {
	got := SMA([]float64{1, 2, 3}, 5)
	if len(got) != 3 {
		t.Fatalf("expected length 3, got %d", len(got))
	}
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestBollingerOrdering(t *testing.T) {
	closes := wave(80)
	upper, middle, lower := Bollinger(closes, 20, 2)
	sma := SMA(closes, 20)
	for i := 19; i < len(closes); i++ {
		if !(upper[i] >= middle[i] && middle[i] >= lower[i]) {
			t.Errorf("index %d: ordering violated %.4f/%.4f/%.4f", i, upper[i], middle[i], lower[i])
		}
		assertClose(t, "middle equals sma", middle[i], sma[i], 1e-9)
		assertClose(t, "symmetric bands", upper[i]-middle[i], middle[i]-lower[i], 1e-9)
	}
	if !math.IsNaN(upper[0]) || !math.IsNaN(lower[18]) {
		t.Errorf("expected NaN warm-up in bands")
	}
}

func TestRSIBounds(t *testing.T) {
	rsi := RSI(wave(120), 14)
	for i, v := range rsi {
		if i < 14 {
			if !math.IsNaN(v) {
				t.Errorf("index %d: expected NaN warm-up, got %v", i, v)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("index %d: rsi %.4f out of range", i, v)
		}
	}
}

func TestRSIMonotonic(t *testing.T) {
	up := make([]float64, 40)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	for _, v := range RSI(up, 14)[14:] {
		assertClose(t, "rising rsi", v, 100, 1e-9)
	}

	down := make([]float64, 40)
	for i := range down {
		down[i] = 100 - float64(i)
	}
	for _, v := range RSI(down, 14)[14:] {
		assertClose(t, "falling rsi", v, 0, 1e-9)
	}
}

func TestRSIFlatIsUndefined(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5, 5}
	for i, v := range RSI(flat, 3) {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN for flat series, got %v", i, v)
		}
	}
}

func TestMACDConstantSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 42
	}
	line, sig, hist := MACD(closes, 12, 26, 9)
	for i := 0; i < 25; i++ {
		if !math.IsNaN(line[i]) {
			t.Errorf("line index %d: expected NaN, got %v", i, line[i])
		}
	}
	for i := 33; i < len(closes); i++ {
		assertClose(t, "line", line[i], 0, 1e-9)
		assertClose(t, "signal", sig[i], 0, 1e-9)
		assertClose(t, "hist", hist[i], 0, 1e-9)
	}
}

func TestMACDHistogramIsDifference(t *testing.T) {
	closes := wave(100)
	line, sig, hist := MACD(closes, 12, 26, 9)
	first := 26 - 1 + 9 - 1
	if !math.IsNaN(sig[first-1]) {
		t.Errorf("signal should be undefined before index %d", first)
	}
	for i := first; i < len(closes); i++ {
		assertClose(t, "hist", hist[i], line[i]-sig[i], 1e-12)
	}
}

func TestCCIWarmup(t *testing.T) {
	s := makeSeries(wave(50))
	cci := CCI(s.Highs(), s.Lows(), s.Closes(), 14)
	for i := 0; i < 13; i++ {
		if !math.IsNaN(cci[i]) {
			t.Errorf("index %d: expected NaN warm-up, got %v", i, cci[i])
		}
	}
	for i := 13; i < len(cci); i++ {
		if math.IsNaN(cci[i]) {
			t.Errorf("index %d: expected value after warm-up", i)
		}
	}
	if got := CCI([]float64{1}, []float64{1, 2}, []float64{1, 2}, 2); !math.IsNaN(got[0]) {
		t.Errorf("mismatched inputs should yield NaN")
	}
}

func TestComputeTailMatchesFullHistory(t *testing.T) {
	s := makeSeries(wave(150))
	full, err := Compute(s, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tail := full.Tail(30)
	if len(tail.RSI.Points) != 30 || len(tail.MA) != 3 {
		t.Fatalf("unexpected tail shape: rsi=%d ma=%d", len(tail.RSI.Points), len(tail.MA))
	}
	fullRSI := full.RSI.Values()
	for i, v := range tail.RSI.Values() {
		assertClose(t, "rsi tail", v, fullRSI[len(fullRSI)-30+i], 0)
	}
	if tail.MA[2].Name != "MA120" {
		t.Errorf("expected MA120, got %s", tail.MA[2].Name)
	}
}

func TestComputeRejectsEmptySeries(t *testing.T) {
	if _, err := Compute(model.Series{Symbol: "X"}, DefaultParams()); err == nil {
		t.Errorf("expected error for empty series")
	}
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		current, high, low, want float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := Calculate52WeekPosition(tt.current, tt.high, tt.low)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertClose(t, "position", got, tt.want, 1e-12)
	}
	if _, err := Calculate52WeekPosition(1, 1, 2); err == nil {
		t.Errorf("expected error for inverted range")
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	s := makeSeries(wave(300))
	high, low, err := Calculate52WeekRange(s.Bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range s.Bars[len(s.Bars)-252:] {
		if b.High > high || b.Low < low {
			t.Fatalf("bar outside range %.2f..%.2f", low, high)
		}
	}
	if !math.IsNaN(DistancePercent(10, 0)) {
		t.Errorf("zero reference should be NaN")
	}
	assertClose(t, "distance", DistancePercent(90, 100), -10, 1e-12)
}
