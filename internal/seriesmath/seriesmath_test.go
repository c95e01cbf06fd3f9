package seriesmath

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"increasing", []float64{1, 2, 3, 4, 5}, 0},
		{"flat", []float64{3, 3, 3}, 0},
		{"single", []float64{7}, 0},
		{"normalized gains", []float64{0, 10, 21, 8.9}, -12.1},
		{"two dips", []float64{10, 5, 12, 2, 11}, -10},
	}
	for _, tt := range tests {
		got, err := MaxDrawdown(tt.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		assertClose(t, tt.name, got, tt.want, 1e-9)
	}
}

func TestMaxDrawdownEmpty(t *testing.T) {
	if _, err := MaxDrawdown(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestPercentChange(t *testing.T) {
	got := PercentChange([]float64{100, 110, 99}, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %d", len(got))
	}
	assertClose(t, "first", got[0], 0.1, 1e-12)
	assertClose(t, "second", got[1], -0.1, 1e-12)

	if got := PercentChange([]float64{1, 2}, 2); len(got) != 0 {
		t.Errorf("lag >= len: expected empty, got %v", got)
	}
	if got := PercentChange([]float64{0, 1}, 1); !math.IsInf(got[0], 1) {
		t.Errorf("zero denominator: expected +Inf, got %v", got[0])
	}
}

func TestTrailingWindow(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		n    int
		want []float64
	}{
		{2, []float64{4, 5}},
		{5, []float64{1, 2, 3, 4, 5}},
		{9, []float64{1, 2, 3, 4, 5}},
		{0, []float64{}},
	}
	for _, tt := range tests {
		got := TrailingWindow(s, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("n=%d: expected len %d, got %d", tt.n, len(tt.want), len(got))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("n=%d: index %d expected %v, got %v", tt.n, i, tt.want[i], got[i])
			}
		}
	}
}

func TestTrailingWindowCopies(t *testing.T) {
	s := []float64{1, 2, 3}
	w := TrailingWindow(s, 2)
	w[0] = 99
	if s[1] != 2 {
		t.Errorf("input mutated through window")
	}
}

func TestStatsEdgeCases(t *testing.T) {
	if !math.IsNaN(SampleStdev([]float64{1})) {
		t.Errorf("stdev of one sample should be NaN")
	}
	if !math.IsNaN(Mean(nil)) {
		t.Errorf("mean of empty should be NaN")
	}
	if !math.IsNaN(Max([]float64{1, math.NaN()})) {
		t.Errorf("max should propagate NaN")
	}
	assertClose(t, "sample stdev", SampleStdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), math.Sqrt(32.0/7.0), 1e-12)
	assertClose(t, "min", Min([]float64{3, -1, 2}), -1, 0)
}
