package main

import (
	"math"
	"strings"
	"testing"
)

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.234, "1.23"},
		{-0.5, "-0.50"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsNegative(t *testing.T) {
	if !isNegative("-1.00") || isNegative("-") || isNegative("2.00") {
		t.Error("only signed numbers are negative")
	}
}

func TestRenderKeepsCells(t *testing.T) {
	out := render([]string{"", "Gain"}, [][]string{{"SPY", "8.90"}, {"Portfolio", "-1.00"}})
	for _, want := range []string{"Gain", "SPY", "8.90", "Portfolio", "-1.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}
