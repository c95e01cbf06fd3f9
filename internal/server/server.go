// Package server exposes the dashboard views as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"FinStream/internal/backtest"
	"FinStream/internal/collector"
	"FinStream/internal/config"
	"FinStream/internal/dashboard"
	"FinStream/internal/model"
	"FinStream/internal/recorder"
)

// Server serves the dashboard API.
type Server struct {
	Dashboard *dashboard.Service
	Recorder  recorder.Recorder
	// Metrics and Health are mounted at /metrics and /healthz when set.
	Metrics http.Handler
	Health  http.Handler
}

// New creates a server for svc.
func New(svc *dashboard.Service, metrics, health http.Handler) *Server {
	return &Server{Dashboard: svc, Recorder: svc.Recorder, Metrics: metrics, Health: health}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/portfolio", s.get(s.handlePortfolio))
	mux.HandleFunc("/api/portfolio/holdings", s.handleHoldings)
	mux.HandleFunc("/api/stock", s.get(s.handleStock))
	mux.HandleFunc("/api/patterns", s.get(s.handlePatterns))
	mux.HandleFunc("/api/market", s.get(s.handleMarket))
	mux.HandleFunc("/api/runs", s.get(s.handleRuns))
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	if s.Health != nil {
		mux.Handle("/healthz", s.Health)
	}
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] http server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			h(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	view, err := s.Dashboard.Portfolio(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPortfolioResponse(view))
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	view, err := s.Dashboard.Stock(r.Context(), ticker, period)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockResponse(view))
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	view, err := s.Dashboard.Patterns(r.Context(), ticker, period)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatternsResponse(view))
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	view, err := s.Dashboard.Market(r.Context(), period)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMarketResponse(view))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	runs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRunSummaries(runs))
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Dashboard.Config.Config().Portfolio.Holdings)
	case http.MethodPost:
		var holdings []config.Holding
		if err := json.NewDecoder(r.Body).Decode(&holdings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		kept, err := s.Dashboard.SetPortfolio(r.Context(), holdings)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[INFO] portfolio updated: %d holdings", len(kept))
		writeJSON(w, http.StatusOK, kept)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.Dashboard.Collector.ClearCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// periodParam parses the optional period query; empty selects the view default.
func periodParam(w http.ResponseWriter, r *http.Request) (model.Period, bool) {
	v := r.URL.Query().Get("period")
	if v == "" {
		return "", true
	}
	p, err := model.ParsePeriod(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return p, true
}

func writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collector.ErrNoData), errors.Is(err, backtest.ErrUnknownTicker):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrMalformedSeries):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("[ERROR] view failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
