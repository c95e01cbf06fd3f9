package pattern

import (
	"sort"

	"FinStream/internal/model"
)

// ScanPortfolio evaluates every catalog rule over the trailing window of each
// ticker and returns the hits matching the catalog polarity, ordered by their
// rendered log line. Tickers missing from the set are skipped.
func ScanPortfolio(set *model.InstrumentSet, tickers []string, window int, c Catalog) []model.PatternHit {
	var hits []model.PatternHit
	for _, ticker := range tickers {
		inst, ok := set.Get(ticker)
		if !ok {
			continue
		}
		bars := inst.Series.Tail(window).Bars
		for _, rule := range c.Rules {
			for i, v := range rule.Eval(bars) {
				if c.Polarity.Matches(v) {
					hits = append(hits, model.PatternHit{Time: bars[i].Time, Ticker: ticker, Rule: rule.Name, Value: v})
				}
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Line() < hits[j].Line() })
	return hits
}

// Signal sums every catalog rule per bar over the trailing window and reports
// the total in hit counts (each rule contributes +-100).
func Signal(s model.Series, window int, c Catalog) []model.PatternSignal {
	bars := s.Tail(window).Bars
	sums := make([]int, len(bars))
	for _, rule := range c.Rules {
		for i, v := range rule.Eval(bars) {
			sums[i] += v
		}
	}
	out := make([]model.PatternSignal, len(bars))
	for i, b := range bars {
		out[i] = model.PatternSignal{Time: b.Time, Strength: sums[i] / 100}
	}
	return out
}

// AggregateSignal keeps only the bars whose summed signal has the catalog's
// polarity and places a marker at each bar's close.
func AggregateSignal(s model.Series, window int, c Catalog) []model.PatternMarker {
	bars := s.Tail(window).Bars
	var out []model.PatternMarker
	for i, sig := range Signal(s, window, c) {
		if c.Polarity.Matches(sig.Strength) {
			out = append(out, model.PatternMarker{Time: sig.Time, Price: bars[i].Close, Strength: sig.Strength})
		}
	}
	return out
}
