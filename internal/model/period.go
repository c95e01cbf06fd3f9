package model

import (
	"fmt"
	"strings"
	"time"
)

// Period is a display window selected in the dashboard.
type Period string

const (
	Period6H  Period = "6H"
	Period12H Period = "12H"
	Period1D  Period = "1D"
	Period5D  Period = "5D"
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
)

var lookbacks = map[Period]time.Duration{
	Period6H:  6 * time.Hour,
	Period12H: 12 * time.Hour,
	Period1D:  24 * time.Hour,
	Period5D:  5 * 24 * time.Hour,
	Period1M:  30 * 24 * time.Hour,
	Period3M:  90 * 24 * time.Hour,
	Period6M:  180 * 24 * time.Hour,
	Period1Y:  365 * 24 * time.Hour,
}

// ParsePeriod validates a period label, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := lookbacks[p]; !ok {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// Lookback returns the wall-clock span covered by the period.
func (p Period) Lookback() time.Duration { return lookbacks[p] }

// Intraday reports whether the period needs intraday bars.
func (p Period) Intraday() bool { return p.Lookback() <= 5*24*time.Hour }

// PointsSince counts the dates strictly after last-lookback. Dates must be ascending.
func PointsSince(dates []time.Time, lookback time.Duration) int {
	if len(dates) == 0 {
		return 0
	}
	cutoff := dates[len(dates)-1].Add(-lookback)
	n := 0
	for i := len(dates) - 1; i >= 0 && dates[i].After(cutoff); i-- {
		n++
	}
	return n
}
