package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FinStream/internal/collector"
	"FinStream/internal/config"
	"FinStream/internal/dashboard"
	"FinStream/internal/metrics"
)

func newTestServer(t *testing.T, m *collector.MockFetcher) (*httptest.Server, *collector.MockFetcher) {
	t.Helper()
	t.Setenv("FINSTREAM_PORTFOLIO", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	svc := dashboard.NewService(collector.NewCollector(m, collector.NewMemoryCache(), time.Hour), config.NewStore(cfg, ""), nil)
	met := metrics.New()
	svc.Observer = met
	srv := httptest.NewServer(New(svc, met.Handler(), metrics.NewHealthStatus()).Routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func getJSON(t *testing.T, url string, wantCode int, into interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantCode)
	}
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestPortfolioEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100})

	var body struct {
		RunID    string `json:"run_id"`
		Summary  []map[string]interface{}
		Backtest []struct {
			Ticker string   `json:"ticker"`
			Gain   *float64 `json:"gain"`
		} `json:"backtest"`
		Chart map[string]interface{} `json:"chart"`
	}
	getJSON(t, srv.URL+"/api/portfolio", http.StatusOK, &body)

	if body.RunID == "" || len(body.Summary) != 2 {
		t.Errorf("unexpected body run=%q summary=%d", body.RunID, len(body.Summary))
	}
	n := len(body.Backtest)
	if n == 0 || body.Backtest[n-1].Ticker != "Portfolio" || body.Backtest[n-1].Gain == nil {
		t.Errorf("portfolio row missing or undefined: %+v", body.Backtest)
	}
	if body.Chart["$schema"] == nil {
		t.Error("chart should carry a vega-lite schema")
	}
}

func TestStockEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100, Missing: map[string]bool{"NOPE": true}})

	var body struct {
		Ticker string                 `json:"ticker"`
		Period string                 `json:"period"`
		Quote  map[string]interface{} `json:"quote"`
		Latest map[string]*float64    `json:"latest"`
		Charts []json.RawMessage      `json:"charts"`
	}
	getJSON(t, srv.URL+"/api/stock?ticker=aapl&period=3m", http.StatusOK, &body)
	if body.Ticker != "AAPL" || body.Period != "3M" || len(body.Charts) != 4 {
		t.Errorf("unexpected stock body %s/%s charts=%d", body.Ticker, body.Period, len(body.Charts))
	}
	if body.Latest["rsi"] == nil {
		t.Error("expected a defined RSI")
	}
	if body.Quote["previous_close"] != nil {
		t.Errorf("missing previous close should encode as null, got %v", body.Quote["previous_close"])
	}

	getJSON(t, srv.URL+"/api/stock", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/stock?ticker=AAPL&period=2W", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/stock?ticker=NOPE", http.StatusNotFound, nil)
}

func TestPatternsAndMarketEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100})

	var patterns struct {
		Ticker  string   `json:"ticker"`
		Bullish []string `json:"bullish"`
		Bearish []string `json:"bearish"`
	}
	getJSON(t, srv.URL+"/api/patterns?period=1M", http.StatusOK, &patterns)
	if patterns.Ticker != "SPY" {
		t.Errorf("expected first holding, got %q", patterns.Ticker)
	}

	var market struct {
		Open   bool `json:"open"`
		Charts []struct {
			Name string `json:"name"`
		} `json:"charts"`
	}
	getJSON(t, srv.URL+"/api/market?period=6H", http.StatusOK, &market)
	if !market.Open || len(market.Charts) != 4 {
		t.Errorf("unexpected market body %+v", market)
	}
}

func TestCacheClear(t *testing.T) {
	srv, m := newTestServer(t, &collector.MockFetcher{Price: 100})

	getJSON(t, srv.URL+"/api/stock?ticker=AAPL", http.StatusOK, nil)
	getJSON(t, srv.URL+"/api/stock?ticker=AAPL", http.StatusOK, nil)
	if m.Calls() != 1 {
		t.Fatalf("expected cached history, got %d fetches", m.Calls())
	}

	getJSON(t, srv.URL+"/api/cache/clear", http.StatusMethodNotAllowed, nil)
	resp, err := http.Post(srv.URL+"/api/cache/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status %d", resp.StatusCode)
	}

	getJSON(t, srv.URL+"/api/stock?ticker=AAPL", http.StatusOK, nil)
	if m.Calls() != 2 {
		t.Errorf("expected refetch after clear, got %d fetches", m.Calls())
	}
}

func TestHoldingsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100, Missing: map[string]bool{"BAD": true}})

	resp, err := http.Post(srv.URL+"/api/portfolio/holdings", "application/json",
		strings.NewReader(`[{"ticker":"msft","weight":2},{"ticker":"BAD"}]`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var kept []config.Holding
	if err := json.NewDecoder(resp.Body).Decode(&kept); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(kept) != 1 || kept[0].Ticker != "MSFT" || kept[0].WeightOrDefault() != 2 {
		t.Errorf("unexpected holdings %+v", kept)
	}

	var current []config.Holding
	getJSON(t, srv.URL+"/api/portfolio/holdings", http.StatusOK, &current)
	if len(current) != 1 || current[0].Ticker != "MSFT" {
		t.Errorf("holdings not persisted in store: %+v", current)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100})
	getJSON(t, srv.URL+"/api/market", http.StatusOK, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), `finstream_view_duration_seconds_count{view="market"} 1`) {
		t.Errorf("market view not counted:\n%s", buf.String())
	}

	var health map[string]interface{}
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &health)
	if health["status"] != "healthy" {
		t.Errorf("unexpected health %v", health)
	}
}

func TestRunsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &collector.MockFetcher{Price: 100})
	var runs []json.RawMessage
	getJSON(t, srv.URL+"/api/runs?limit=5", http.StatusOK, &runs)
	if len(runs) != 0 {
		t.Errorf("noop recorder should have no runs, got %d", len(runs))
	}
}
