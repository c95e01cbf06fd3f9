package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"FinStream/internal/model"
)

const (
	defaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s"
	defaultQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote?symbols=%s"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	ChartURL  string
	QuoteURL  string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		ChartURL: defaultChartURL,
		QuoteURL: defaultQuoteURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       yahooMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooMeta struct {
	Symbol             string   `json:"symbol"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	InstrumentType     string   `json:"instrumentType"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`

	CurrentTradingPeriod struct {
		Regular struct {
			Start int64 `json:"start"`
			End   int64 `json:"end"`
		} `json:"regular"`
	} `json:"currentTradingPeriod"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooQuote is the response structure from the Yahoo Finance quote API.
type yahooQuote struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string   `json:"symbol"`
			LongName                   string   `json:"longName"`
			ShortName                  string   `json:"shortName"`
			QuoteType                  string   `json:"quoteType"`
			MarketState                string   `json:"marketState"`
			RegularMarketPrice         *float64 `json:"regularMarketPrice"`
			RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
			RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
			TrailingPE                 *float64 `json:"trailingPE"`
			FiftyTwoWeekHigh           *float64 `json:"fiftyTwoWeekHigh"`
			FiftyTwoWeekLow            *float64 `json:"fiftyTwoWeekLow"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

func (f *YahooFetcher) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf(f.ChartURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)
	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}
	return &chart, nil
}

// FetchHistory downloads OHLCV bars, skipping bars with missing prices.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.PriceBar, error) {
	chart, err := f.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no bars returned for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // holidays and half-formed intraday bars
		}
		vol := 0.0
		if v := at(quote.Volume, i); v != nil {
			vol = *v
		}
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: vol,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupe(bars), nil
}

// FetchQuote reads the quote API and falls back to chart metadata, which
// lacks valuation fields, when the quote API refuses the request.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	q, err := f.fetchQuote(ctx, symbol)
	if err == nil {
		return q, nil
	}
	log.Printf("[WARN] yahoo quote for %s failed: %v, using chart metadata", symbol, err)
	return f.quoteFromChart(ctx, symbol)
}

func (f *YahooFetcher) fetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	u := fmt.Sprintf(f.QuoteURL, url.QueryEscape(f.yahooSymbol(symbol)))
	var resp yahooQuote
	if err := f.get(ctx, u, &resp); err != nil {
		return model.Quote{}, err
	}
	if resp.QuoteResponse.Error != nil {
		return model.Quote{}, fmt.Errorf("yahoo api error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 || resp.QuoteResponse.Result[0].RegularMarketPrice == nil {
		return model.Quote{}, fmt.Errorf("yahoo: no quote for %s", symbol)
	}
	r := resp.QuoteResponse.Result[0]
	return model.Quote{
		Symbol:           symbol,
		Name:             firstNonEmpty(r.LongName, r.ShortName, symbol),
		QuoteType:        r.QuoteType,
		MarketState:      r.MarketState,
		Price:            *r.RegularMarketPrice,
		PreviousClose:    r.RegularMarketPreviousClose,
		ChangePercent:    r.RegularMarketChangePercent,
		TrailingPE:       r.TrailingPE,
		FiftyTwoWeekHigh: r.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  r.FiftyTwoWeekLow,
		FetchedAt:        time.Now(),
	}, nil
}

func (f *YahooFetcher) quoteFromChart(ctx context.Context, symbol string) (model.Quote, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return model.Quote{}, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return model.Quote{}, fmt.Errorf("yahoo: no price for %s", symbol)
	}
	prev := meta.PreviousClose
	if prev == nil {
		prev = meta.ChartPreviousClose
	}
	q := model.Quote{
		Symbol:           symbol,
		Name:             firstNonEmpty(meta.LongName, meta.ShortName, symbol),
		QuoteType:        meta.InstrumentType,
		MarketState:      "CLOSED",
		Price:            *meta.RegularMarketPrice,
		PreviousClose:    prev,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		FetchedAt:        time.Now(),
	}
	if prev != nil && *prev != 0 {
		q.ChangePercent = model.Float((q.Price - *prev) / *prev * 100)
	}
	now := time.Now().Unix()
	if p := meta.CurrentTradingPeriod.Regular; p.Start <= now && now < p.End {
		q.MarketState = "REGULAR"
	}
	return q, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func dedupe(bars []model.PriceBar) []model.PriceBar {
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
