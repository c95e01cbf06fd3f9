package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"FinStream/internal/model"
)

// ErrNoData is returned when none of the requested tickers could be fetched.
var ErrNoData = errors.New("no instrument data collected")

// Observer receives fetch timings; metrics.Metrics satisfies it.
type Observer interface {
	ObserveFetch(source string, d time.Duration, err error)
	ObserveCache(hit bool)
}

// Request selects the history granularity for a collection.
type Request struct {
	Tickers  []string
	Interval string
	Range    string
}

// Collector orchestrates data fetching and caching for a ticker list.
type Collector struct {
	Fetcher  Fetcher
	Cache    Cache
	TTL      time.Duration
	Observer Observer
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, cache Cache, ttl time.Duration) *Collector {
	return &Collector{Fetcher: fetcher, Cache: cache, TTL: ttl}
}

// Collect fetches quote and history for every ticker. Tickers that fail are
// logged and skipped; the call only fails when nothing could be collected.
func (c *Collector) Collect(ctx context.Context, req Request) (*model.InstrumentSet, error) {
	set := model.NewInstrumentSet()
	for _, ticker := range req.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := c.history(ctx, ticker, req.Interval, req.Range)
		if err != nil {
			log.Printf("[WARN] history for %s failed: %v, skipping", ticker, err)
			continue
		}
		series := model.Series{Symbol: ticker, Bars: bars}
		if err := series.Validate(); err != nil {
			log.Printf("[WARN] %v, skipping", err)
			continue
		}

		quote, err := c.quote(ctx, ticker)
		if err != nil {
			log.Printf("[WARN] quote for %s failed: %v, using last close", ticker, err)
			quote = quoteFromBars(ticker, bars)
		}
		set.Add(model.Instrument{Ticker: ticker, Quote: quote, Series: series})
	}
	if set.Len() == 0 && len(req.Tickers) > 0 {
		return nil, fmt.Errorf("collect %v: %w", req.Tickers, ErrNoData)
	}
	return set, nil
}

// Validate keeps the tickers the fetcher can quote, in input order.
func (c *Collector) Validate(ctx context.Context, tickers []string) []string {
	var ok []string
	for _, t := range tickers {
		if _, err := c.quote(ctx, t); err != nil {
			log.Printf("[WARN] dropping ticker %s: %v", t, err)
			continue
		}
		ok = append(ok, t)
	}
	return ok
}

// IsMarketOpen reports whether the probe symbol trades in its regular session.
func (c *Collector) IsMarketOpen(ctx context.Context, probe string) bool {
	q, err := c.quote(ctx, probe)
	if err != nil {
		log.Printf("[WARN] market state probe %s failed: %v, assuming closed", probe, err)
		return false
	}
	return q.IsRegularSession()
}

// ClearCache drops every cached history.
func (c *Collector) ClearCache(ctx context.Context) error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Clear(ctx)
}

func (c *Collector) history(ctx context.Context, ticker, interval, rng string) ([]model.PriceBar, error) {
	key := CacheKey(ticker, interval, rng)
	if c.Cache != nil {
		bars, hit, err := c.Cache.Get(ctx, key)
		if err != nil {
			log.Printf("[WARN] cache read %s failed: %v", key, err)
		}
		c.observeCache(hit)
		if hit {
			return bars, nil
		}
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchHistory(ctx, ticker, interval, rng)
	c.observeFetch(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", c.Fetcher.Name(), err)
	}

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, key, bars, c.TTL); err != nil {
			log.Printf("[WARN] cache write %s failed: %v", key, err)
		}
	}
	return bars, nil
}

func (c *Collector) quote(ctx context.Context, ticker string) (model.Quote, error) {
	start := time.Now()
	q, err := c.Fetcher.FetchQuote(ctx, ticker)
	c.observeFetch(time.Since(start), err)
	return q, err
}

func (c *Collector) observeFetch(d time.Duration, err error) {
	if c.Observer != nil {
		c.Observer.ObserveFetch(c.Fetcher.Name(), d, err)
	}
}

func (c *Collector) observeCache(hit bool) {
	if c.Observer != nil {
		c.Observer.ObserveCache(hit)
	}
}

func quoteFromBars(ticker string, bars []model.PriceBar) model.Quote {
	q := model.Quote{Symbol: ticker, Name: ticker, Price: bars[len(bars)-1].Close, FetchedAt: time.Now()}
	if len(bars) > 1 {
		prev := bars[len(bars)-2].Close
		q.PreviousClose = model.Float(prev)
		if prev != 0 {
			q.ChangePercent = model.Float((q.Price - prev) / prev * 100)
		}
	}
	return q
}
