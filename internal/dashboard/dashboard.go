// Package dashboard assembles the portfolio, stock, pattern and market views
// from collected market data.
package dashboard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"FinStream/internal/backtest"
	"FinStream/internal/calculator"
	"FinStream/internal/chart"
	"FinStream/internal/collector"
	"FinStream/internal/config"
	"FinStream/internal/model"
	"FinStream/internal/pattern"
	"FinStream/internal/recorder"
	"FinStream/internal/screener"
)

// Intraday history used by the market view.
const (
	intradayInterval = "5m"
	intradayRange    = "5d"
)

// patternLogPeriod is the window of the portfolio-wide pattern log.
const patternLogPeriod = model.Period1M

var displayNames = map[string]string{
	"^IXIC": "NASDAQ Composite",
	"^GSPC": "S&P 500",
	"^DJI":  "Dow Jones",
	"KRW=X": "USD/KRW",
	"NQ=F":  "NASDAQ Futures",
	"ES=F":  "S&P 500 Futures",
	"YM=F":  "Dow Futures",
}

// DisplayName returns a readable name for well-known symbols.
func DisplayName(ticker string) string {
	if name, ok := displayNames[ticker]; ok {
		return name
	}
	return ticker
}

// Observer receives view timings and scan results.
type Observer interface {
	ObserveView(view string, d time.Duration, err error)
	ObservePatterns(polarity model.Polarity, hits int)
	ObserveMarket(open bool)
}

// Service builds dashboard views on demand.
type Service struct {
	Collector *collector.Collector
	Config    *config.Store
	Recorder  recorder.Recorder
	Observer  Observer
}

// NewService wires a service; a nil recorder disables history.
func NewService(c *collector.Collector, store *config.Store, rec recorder.Recorder) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Collector: c, Config: store, Recorder: rec}
}

// PortfolioView is the summary table, the oversold/overbought screen and the
// accumulated gain backtest.
type PortfolioView struct {
	Run        recorder.Run
	Period     model.Period
	Summary    []model.SummaryRow
	Thresholds screener.Thresholds
	Screen     screener.Result
	Backtest   model.BacktestResult
	GainChart  chart.Spec
}

// Portfolio builds the portfolio view for the configured gain period.
func (s *Service) Portfolio(ctx context.Context) (view PortfolioView, err error) {
	defer s.observe("portfolio", time.Now(), &err)

	a := s.Config.Analysis()
	set, err := s.Collector.Collect(ctx, collector.Request{
		Tickers:  union(a.Benchmarks, a.Tickers()),
		Interval: a.Interval,
		Range:    a.HistoryRange,
	})
	if err != nil {
		return PortfolioView{}, fmt.Errorf("collect portfolio: %w", err)
	}

	view = PortfolioView{
		Run:        recorder.NewRun(),
		Period:     a.GainPeriod,
		Summary:    screener.Summarize(set, a.Tickers(), a.Indicators),
		Thresholds: a.Thresholds,
	}
	view.Screen = screener.Screen(view.Summary, a.Thresholds)

	window := 0
	if len(a.Benchmarks) > 0 {
		if ref, ok := set.Get(a.Benchmarks[0]); ok {
			window = model.PointsSince(ref.Series.Dates(), a.GainPeriod.Lookback())
		}
	}
	holdings := available(set, a.Holdings)
	if len(holdings) == 0 {
		return PortfolioView{}, fmt.Errorf("backtest: no holding has data: %w", collector.ErrNoData)
	}
	view.Backtest, err = backtest.Run(set, backtest.Request{
		Benchmarks:     a.Benchmarks,
		Holdings:       holdings,
		Window:         window,
		BetaPeriod:     a.BetaPeriod,
		IncludeMembers: a.IncludeMembers,
	})
	if err != nil {
		return PortfolioView{}, fmt.Errorf("backtest: %w", err)
	}
	view.GainChart = chart.Backtest(fmt.Sprintf("Accumulated Gain (%%) %s", a.GainPeriod), view.Backtest.Source)

	if err := s.Recorder.RecordSummary(view.Run, view.Summary); err != nil {
		log.Printf("[WARN] record summary: %v", err)
	}
	if err := s.Recorder.RecordBacktest(view.Run, view.Backtest); err != nil {
		log.Printf("[WARN] record backtest: %v", err)
	}
	return view, nil
}

// available keeps the holdings the collector returned data for.
func available(set *model.InstrumentSet, holdings []model.Holding) []model.Holding {
	kept := make([]model.Holding, 0, len(holdings))
	for _, h := range holdings {
		if _, ok := set.Get(h.Ticker); !ok {
			log.Printf("[WARN] portfolio: %s has no data, left out of the backtest", h.Ticker)
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// StockView is the indicator set and charts of one ticker.
type StockView struct {
	Ticker     string
	Period     model.Period
	Quote      model.Quote
	Indicators model.IndicatorSet
	Charts     []chart.Spec
}

// Stock builds the stock view. An empty period uses the configured default.
func (s *Service) Stock(ctx context.Context, ticker string, period model.Period) (view StockView, err error) {
	defer s.observe("stock", time.Now(), &err)

	a := s.Config.Analysis()
	if period == "" {
		period = a.StockPeriod
	}
	inst, err := s.instrument(ctx, ticker, a.Interval, a.HistoryRange)
	if err != nil {
		return StockView{}, err
	}
	ind, err := calculator.Compute(inst.Series, a.Indicators)
	if err != nil {
		return StockView{}, fmt.Errorf("indicators for %s: %w", ticker, err)
	}

	n := model.PointsSince(inst.Series.Dates(), period.Lookback())
	ind = ind.Tail(n)
	title := chart.Title(ticker, inst.Quote.Price, model.Value(inst.Quote.PreviousClose))
	return StockView{
		Ticker:     ticker,
		Period:     period,
		Quote:      inst.Quote,
		Indicators: ind,
		Charts: []chart.Spec{
			chart.Overlay(title, inst.Series.Tail(n), ind),
			chart.Oscillator(fmt.Sprintf("RSI(%d)", a.Indicators.RSIPeriod), ind.RSI, a.Thresholds.RSILow, a.Thresholds.RSIHigh),
			chart.Oscillator(fmt.Sprintf("CCI(%d)", a.Indicators.CCIPeriod), ind.CCI, a.Thresholds.CCILow, a.Thresholds.CCIHigh),
			chart.MACD("MACD", ind),
		},
	}, nil
}

// PatternView holds the portfolio pattern logs and the marker chart of one ticker.
type PatternView struct {
	Run            recorder.Run
	Ticker         string
	Period         model.Period
	Bullish        []model.PatternHit
	Bearish        []model.PatternHit
	BullishMarkers []model.PatternMarker
	BearishMarkers []model.PatternMarker
	Chart          chart.Spec
}

// Patterns scans the portfolio over the last month and charts the markers of
// ticker over period. An empty ticker selects the first holding.
func (s *Service) Patterns(ctx context.Context, ticker string, period model.Period) (view PatternView, err error) {
	defer s.observe("patterns", time.Now(), &err)

	a := s.Config.Analysis()
	if period == "" {
		period = a.PatternPeriod
	}
	tickers := a.Tickers()
	if ticker == "" && len(tickers) > 0 {
		ticker = tickers[0]
	}
	set, err := s.Collector.Collect(ctx, collector.Request{
		Tickers:  union(tickers, []string{ticker}),
		Interval: a.Interval,
		Range:    a.HistoryRange,
	})
	if err != nil {
		return PatternView{}, fmt.Errorf("collect patterns: %w", err)
	}

	view = PatternView{Run: recorder.NewRun(), Ticker: ticker, Period: period}
	view.Bullish, view.Bearish = scanLogs(set, tickers)

	inst, ok := set.Get(ticker)
	if !ok {
		return PatternView{}, fmt.Errorf("%s: %w", ticker, collector.ErrNoData)
	}
	n := model.PointsSince(inst.Series.Dates(), period.Lookback())
	view.BullishMarkers = pattern.AggregateSignal(inst.Series, n, pattern.Bullish)
	view.BearishMarkers = pattern.AggregateSignal(inst.Series, n, pattern.Bearish)
	title := chart.Title(ticker, inst.Quote.Price, model.Value(inst.Quote.PreviousClose))
	view.Chart = chart.PatternOverlay(title, inst.Series.Tail(n), view.BullishMarkers, view.BearishMarkers)

	for _, scan := range []struct {
		polarity model.Polarity
		hits     []model.PatternHit
	}{{model.Bullish, view.Bullish}, {model.Bearish, view.Bearish}} {
		if err := s.Recorder.RecordPatterns(view.Run, scan.polarity, scan.hits); err != nil {
			log.Printf("[WARN] record %s patterns: %v", scan.polarity, err)
		}
		if s.Observer != nil {
			s.Observer.ObservePatterns(scan.polarity, len(scan.hits))
		}
	}
	return view, nil
}

// scanLogs runs both catalogs over the pattern log window, measured on the
// first ticker's dates.
func scanLogs(set *model.InstrumentSet, tickers []string) (bull, bear []model.PatternHit) {
	window := 0
	for _, t := range tickers {
		if inst, ok := set.Get(t); ok {
			window = model.PointsSince(inst.Series.Dates(), patternLogPeriod.Lookback())
			break
		}
	}
	return pattern.ScanPortfolio(set, tickers, window, pattern.Bullish),
		pattern.ScanPortfolio(set, tickers, window, pattern.Bearish)
}

// MarketChart is the price chart of one market symbol.
type MarketChart struct {
	Ticker string
	Name   string
	Price  float64
	Change float64
	Chart  chart.Spec
}

// MarketView shows index prices in the regular session and futures otherwise.
type MarketView struct {
	Open   bool
	Period model.Period
	Charts []MarketChart
}

// Market builds the market view from intraday bars.
func (s *Service) Market(ctx context.Context, period model.Period) (view MarketView, err error) {
	defer s.observe("market", time.Now(), &err)

	a := s.Config.Analysis()
	if period == "" {
		period = a.MarketPeriod
	}
	view = MarketView{Period: period, Open: s.Collector.IsMarketOpen(ctx, a.MarketProbe)}
	if s.Observer != nil {
		s.Observer.ObserveMarket(view.Open)
	}
	tickers := a.Futures
	if view.Open {
		tickers = a.Market
	}

	set, err := s.Collector.Collect(ctx, collector.Request{
		Tickers:  tickers,
		Interval: intradayInterval,
		Range:    intradayRange,
	})
	if err != nil {
		return MarketView{}, fmt.Errorf("collect market: %w", err)
	}
	for _, t := range tickers {
		inst, ok := set.Get(t)
		if !ok {
			continue
		}
		n := model.PointsSince(inst.Series.Dates(), period.Lookback())
		closes := model.NewIndicatorSeries("Close", inst.Series.Dates(), inst.Series.Closes()).Tail(n)
		prev := model.Value(inst.Quote.PreviousClose)
		name := DisplayName(t)
		view.Charts = append(view.Charts, MarketChart{
			Ticker: t,
			Name:   name,
			Price:  inst.Quote.Price,
			Change: model.Value(inst.Quote.ChangePercent),
			Chart:  chart.Price(chart.Title(name, inst.Quote.Price, prev), closes, prev),
		})
	}
	return view, nil
}

// SetPortfolio validates the tickers, drops unknown ones and persists the
// result. When nothing survives the default holdings are restored.
func (s *Service) SetPortfolio(ctx context.Context, holdings []config.Holding) ([]config.Holding, error) {
	tickers := make([]string, len(holdings))
	for i, h := range holdings {
		tickers[i] = strings.ToUpper(strings.TrimSpace(h.Ticker))
	}
	valid := make(map[string]bool)
	for _, t := range s.Collector.Validate(ctx, tickers) {
		valid[t] = true
	}

	var kept []config.Holding
	for i, h := range holdings {
		if valid[tickers[i]] {
			h.Ticker = tickers[i]
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		log.Printf("[WARN] no valid tickers in %v, restoring defaults", tickers)
		kept = config.DefaultHoldings()
	}
	if err := s.Config.Update(func(c *config.Config) { c.Portfolio.Holdings = kept }); err != nil {
		return nil, err
	}
	return kept, nil
}

// Refresh clears the history cache and rebuilds the portfolio view.
func (s *Service) Refresh(ctx context.Context) (PortfolioView, error) {
	if err := s.Collector.ClearCache(ctx); err != nil {
		log.Printf("[WARN] clear cache: %v", err)
	}
	return s.Portfolio(ctx)
}

func (s *Service) instrument(ctx context.Context, ticker, interval, rng string) (model.Instrument, error) {
	set, err := s.Collector.Collect(ctx, collector.Request{Tickers: []string{ticker}, Interval: interval, Range: rng})
	if err != nil {
		return model.Instrument{}, fmt.Errorf("collect %s: %w", ticker, err)
	}
	inst, ok := set.Get(ticker)
	if !ok {
		return model.Instrument{}, fmt.Errorf("%s: %w", ticker, collector.ErrNoData)
	}
	return inst, nil
}

func (s *Service) observe(view string, start time.Time, err *error) {
	if s.Observer != nil {
		s.Observer.ObserveView(view, time.Since(start), *err)
	}
}

// union returns a then the members of b not in a, without duplicates.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
