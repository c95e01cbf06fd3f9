package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"FinStream/internal/collector"
	"FinStream/internal/config"
	"FinStream/internal/dashboard"
	"FinStream/internal/recorder"
)

// appFlags are shared by every command.
type appFlags struct {
	configPath string
	mock       bool
	record     bool
}

func (f *appFlags) register(fs *flag.FlagSet, record bool) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	fs.StringVar(&f.configPath, "config", def, "path to the YAML config")
	fs.BoolVar(&f.mock, "mock", false, "use generated market data instead of Yahoo Finance")
	fs.BoolVar(&f.record, "record", record, "store results in the SQLite history")
}

// app holds the wired components of one process.
type app struct {
	Config    *config.Config
	Store     *config.Store
	Collector *collector.Collector
	Dashboard *dashboard.Service
	Redis     *collector.RedisCache
	SQLite    *recorder.SQLiteRecorder
}

func newApp(f appFlags) (*app, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	a := &app{Config: cfg, Store: config.NewStore(cfg, f.configPath)}

	var fetcher collector.Fetcher
	if f.mock || cfg.DataSource.Kind == "mock" {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	var cache collector.Cache = collector.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		rc, err := collector.NewRedisCache(collector.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("[WARN] redis cache unavailable, using memory: %v", err)
		} else {
			a.Redis = rc
			cache = rc
		}
	}
	a.Collector = collector.NewCollector(fetcher, cache, cfg.CacheTTL())

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if f.record && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			a.SQLite = sr
			rec = sr
		}
	}
	a.Dashboard = dashboard.NewService(a.Collector, a.Store, rec)
	return a, nil
}

func (a *app) Close() {
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			log.Printf("[WARN] close sqlite: %v", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("[WARN] close redis: %v", err)
		}
	}
}
