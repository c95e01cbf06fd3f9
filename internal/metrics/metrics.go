// Package metrics exposes Prometheus collectors and the /metrics and
// /healthz endpoints.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"FinStream/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	FetchDur     *prometheus.HistogramVec // labels: source
	FetchErrors  *prometheus.CounterVec   // labels: source
	CacheLookups *prometheus.CounterVec   // labels: result=hit|miss
	CycleDur     *prometheus.HistogramVec // labels: view
	CycleErrors  *prometheus.CounterVec   // labels: view
	PatternHits  *prometheus.CounterVec   // labels: polarity
	LastRefresh  prometheus.Gauge
	MarketOpen   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finstream_fetch_duration_seconds",
			Help:    "Market data request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finstream_fetch_errors_total",
			Help: "Failed market data requests",
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finstream_cache_lookups_total",
			Help: "History cache lookups by result",
		}, []string{"result"}),
		CycleDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finstream_view_duration_seconds",
			Help:    "Time to collect and compute one dashboard view",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"view"}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finstream_view_errors_total",
			Help: "Dashboard views that failed",
		}, []string{"view"}),
		PatternHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finstream_pattern_hits_total",
			Help: "Candlestick pattern hits found by scans",
		}, []string{"polarity"}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "finstream_last_refresh_timestamp_seconds",
			Help: "Unix time of the last completed refresh cycle",
		}),
		MarketOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "finstream_market_open",
			Help: "1 when the cash market is in its regular session",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FetchDur,
		m.FetchErrors,
		m.CacheLookups,
		m.CycleDur,
		m.CycleErrors,
		m.PatternHits,
		m.LastRefresh,
		m.MarketOpen,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveFetch records one market data request.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	m.FetchDur.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveView records one dashboard view computation.
func (m *Metrics) ObserveView(view string, d time.Duration, err error) {
	m.CycleDur.WithLabelValues(view).Observe(d.Seconds())
	if err != nil {
		m.CycleErrors.WithLabelValues(view).Inc()
	}
}

// ObservePatterns counts pattern hits of one scan.
func (m *Metrics) ObservePatterns(polarity model.Polarity, hits int) {
	m.PatternHits.WithLabelValues(polarity.String()).Add(float64(hits))
}

// ObserveMarket records the regular session state.
func (m *Metrics) ObserveMarket(open bool) {
	if open {
		m.MarketOpen.Set(1)
		return
	}
	m.MarketOpen.Set(0)
}

// SetRefresh stamps the last successful refresh cycle.
func (m *Metrics) SetRefresh(at time.Time, err error) {
	if err != nil {
		m.CycleErrors.WithLabelValues("refresh").Inc()
		return
	}
	m.LastRefresh.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Pinger is satisfied by the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	LastRefresh    time.Time `json:"last_refresh"`
	LastError      string    `json:"last_error,omitempty"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now(), RedisConnected: true, SQLiteOK: true}
}

// SetRefresh records the outcome of a refresh cycle.
func (h *HealthStatus) SetRefresh(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.LastError = err.Error()
		return
	}
	h.LastRefresh = at
	h.LastError = ""
}

// StartLivenessChecker runs periodic dependency checks. Nil dependencies are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, redis Pinger, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.check(probeCtx, redis, db)
				cancel()
			}
		}
	}()
}

func (h *HealthStatus) check(ctx context.Context, redis Pinger, db *sql.DB) {
	redisOK, sqliteOK := true, true
	if redis != nil {
		redisOK = redis.Ping(ctx) == nil
	}
	if db != nil {
		sqliteOK = db.PingContext(ctx) == nil
	}
	h.mu.Lock()
	h.RedisConnected = redisOK
	h.SQLiteOK = sqliteOK
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK || h.LastError != "" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		LastRefresh    string `json:"last_refresh"`
		LastError      string `json:"last_error,omitempty"`
		RedisConnected bool   `json:"redis_connected"`
		SQLiteOK       bool   `json:"sqlite_ok"`
	}{
		Status:         status,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		LastRefresh:    h.LastRefresh.Format(time.RFC3339),
		LastError:      h.LastError,
		RedisConnected: h.RedisConnected,
		SQLiteOK:       h.SQLiteOK,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[WARN] encode health: %v", err)
	}
}
