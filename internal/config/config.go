package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FinStream/internal/calculator"
	"FinStream/internal/model"
	"FinStream/internal/screener"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Portfolio struct {
		Holdings []Holding `yaml:"holdings"`
	} `yaml:"portfolio"`
	Benchmarks  []string `yaml:"benchmarks"`
	Market      []string `yaml:"market"`
	Futures     []string `yaml:"futures"`
	MarketProbe string   `yaml:"market_probe"`
	Thresholds  struct {
		RSILow  float64 `yaml:"rsi_low"`
		RSIHigh float64 `yaml:"rsi_high"`
		CCILow  float64 `yaml:"cci_low"`
		CCIHigh float64 `yaml:"cci_high"`
	} `yaml:"thresholds"`
	Indicators struct {
		MAPeriods       []int   `yaml:"ma_periods"`
		BollingerPeriod int     `yaml:"bollinger_period"`
		BollingerMult   float64 `yaml:"bollinger_mult"`
		RSIPeriod       int     `yaml:"rsi_period"`
		CCIPeriod       int     `yaml:"cci_period"`
		MACDFast        int     `yaml:"macd_fast"`
		MACDSlow        int     `yaml:"macd_slow"`
		MACDSignal      int     `yaml:"macd_signal"`
	} `yaml:"indicators"`
	Periods struct {
		Gain    string `yaml:"gain"`
		Stock   string `yaml:"stock"`
		Market  string `yaml:"market"`
		Pattern string `yaml:"pattern"`
	} `yaml:"periods"`
	Backtest struct {
		BetaPeriod     int  `yaml:"beta_period"`
		IncludeMembers bool `yaml:"include_members"`
	} `yaml:"backtest"`
	DataSource struct {
		Kind         string `yaml:"kind"`
		HistoryRange string `yaml:"history_range"`
		Interval     string `yaml:"interval"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		ReportCron  string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Holding is a portfolio entry. In YAML it is either a bare ticker or a
// mapping with ticker and weight; an omitted weight counts as 1.
type Holding struct {
	Ticker string   `yaml:"ticker" json:"ticker"`
	Weight *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// UnmarshalYAML accepts both "SPY" and {ticker: SPY, weight: 60}.
func (h *Holding) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		h.Ticker = value.Value
		return nil
	}
	type plain Holding
	return value.Decode((*plain)(h))
}

// WeightOrDefault returns the configured weight or 1.
func (h Holding) WeightOrDefault() float64 {
	if h.Weight == nil {
		return 1
	}
	return *h.Weight
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("FINSTREAM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("FINSTREAM_PORTFOLIO"); v != "" {
		c.Portfolio.Holdings = nil
		for _, t := range strings.Fields(v) {
			c.Portfolio.Holdings = append(c.Portfolio.Holdings, Holding{Ticker: t})
		}
	}
}

func (c *Config) applyDefaults() {
	if len(c.Portfolio.Holdings) == 0 {
		c.Portfolio.Holdings = DefaultHoldings()
	}
	if len(c.Benchmarks) == 0 {
		c.Benchmarks = []string{"SPY"}
	}
	if len(c.Market) == 0 {
		c.Market = []string{"^IXIC", "^GSPC", "^DJI", "KRW=X"}
	}
	if len(c.Futures) == 0 {
		c.Futures = []string{"NQ=F", "ES=F", "YM=F", "KRW=X"}
	}
	if c.MarketProbe == "" {
		c.MarketProbe = "AAPL"
	}
	if c.Thresholds.RSILow == 0 && c.Thresholds.RSIHigh == 0 {
		c.Thresholds.RSILow, c.Thresholds.RSIHigh = 30, 70
	}
	if c.Thresholds.CCILow == 0 && c.Thresholds.CCIHigh == 0 {
		c.Thresholds.CCILow, c.Thresholds.CCIHigh = -100, 100
	}

	def := calculator.DefaultParams()
	ind := &c.Indicators
	if len(ind.MAPeriods) == 0 {
		ind.MAPeriods = def.MAPeriods
	}
	setInt(&ind.BollingerPeriod, def.BollingerPeriod)
	if ind.BollingerMult == 0 {
		ind.BollingerMult = def.BollingerMult
	}
	setInt(&ind.RSIPeriod, def.RSIPeriod)
	setInt(&ind.CCIPeriod, def.CCIPeriod)
	setInt(&ind.MACDFast, def.MACDFast)
	setInt(&ind.MACDSlow, def.MACDSlow)
	setInt(&ind.MACDSignal, def.MACDSignal)

	setString(&c.Periods.Gain, string(model.Period1M))
	setString(&c.Periods.Stock, string(model.Period1M))
	setString(&c.Periods.Market, string(model.Period6H))
	setString(&c.Periods.Pattern, string(model.Period1M))

	setInt(&c.Backtest.BetaPeriod, 5)

	setString(&c.DataSource.Kind, "yahoo")
	setString(&c.DataSource.HistoryRange, "1y")
	setString(&c.DataSource.Interval, "1d")
	setString(&c.DataSource.CacheTTL, "15m")
	setString(&c.Schedule.RefreshCron, "0 */15 * * * 1-5")
	setString(&c.Schedule.ReportCron, "0 30 16 * * 1-5")
	setString(&c.Database.SQLitePath, "data/finstream.db")
	setString(&c.Server.Addr, ":8080")
}

// DefaultHoldings is the portfolio used when none is configured.
func DefaultHoldings() []Holding {
	return []Holding{{Ticker: "SPY"}, {Ticker: "QQQ"}}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Validate checks that the analysis settings are usable.
func (c *Config) Validate() error {
	if len(c.Portfolio.Holdings) == 0 {
		return fmt.Errorf("portfolio.holdings must not be empty")
	}
	for _, h := range c.Portfolio.Holdings {
		if h.Ticker == "" {
			return fmt.Errorf("portfolio.holdings: empty ticker")
		}
		if h.WeightOrDefault() < 0 {
			return fmt.Errorf("portfolio.holdings: %s weight must be non-negative", h.Ticker)
		}
	}
	if len(c.Benchmarks) == 0 {
		return fmt.Errorf("benchmarks must not be empty")
	}
	if c.Thresholds.RSILow >= c.Thresholds.RSIHigh {
		return fmt.Errorf("thresholds: rsi_low must be below rsi_high")
	}
	if c.Thresholds.CCILow >= c.Thresholds.CCIHigh {
		return fmt.Errorf("thresholds: cci_low must be below cci_high")
	}
	ind := c.Indicators
	for _, p := range append([]int{ind.BollingerPeriod, ind.RSIPeriod, ind.CCIPeriod, ind.MACDFast, ind.MACDSignal}, ind.MAPeriods...) {
		if p <= 0 {
			return fmt.Errorf("indicators: periods must be positive")
		}
	}
	if ind.MACDSlow <= ind.MACDFast {
		return fmt.Errorf("indicators: macd_slow must exceed macd_fast")
	}
	for name, p := range map[string]string{"gain": c.Periods.Gain, "stock": c.Periods.Stock, "market": c.Periods.Market, "pattern": c.Periods.Pattern} {
		if _, err := model.ParsePeriod(p); err != nil {
			return fmt.Errorf("periods.%s: %w", name, err)
		}
	}
	if k := c.DataSource.Kind; k != "yahoo" && k != "mock" {
		return fmt.Errorf("data_source.kind: unknown source %q", k)
	}
	if _, err := time.ParseDuration(c.DataSource.CacheTTL); err != nil {
		return fmt.Errorf("data_source.cache_ttl: %w", err)
	}
	return nil
}

// Save writes the config back as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// CacheTTL returns the parsed history cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.DataSource.CacheTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// Analysis is an immutable snapshot of the settings the computations read.
type Analysis struct {
	Holdings       []model.Holding
	Benchmarks     []string
	Market         []string
	Futures        []string
	MarketProbe    string
	Indicators     calculator.Params
	Thresholds     screener.Thresholds
	GainPeriod     model.Period
	StockPeriod    model.Period
	MarketPeriod   model.Period
	PatternPeriod  model.Period
	BetaPeriod     int
	IncludeMembers bool
	HistoryRange   string
	Interval       string
}

// Tickers returns the portfolio tickers in configured order.
func (a Analysis) Tickers() []string {
	out := make([]string, len(a.Holdings))
	for i, h := range a.Holdings {
		out[i] = h.Ticker
	}
	return out
}

// Analysis takes a snapshot; later edits to c do not affect it.
func (c *Config) Analysis() Analysis {
	a := Analysis{
		Benchmarks:  append([]string(nil), c.Benchmarks...),
		Market:      append([]string(nil), c.Market...),
		Futures:     append([]string(nil), c.Futures...),
		MarketProbe: c.MarketProbe,
		Indicators: calculator.Params{
			MAPeriods:       append([]int(nil), c.Indicators.MAPeriods...),
			BollingerPeriod: c.Indicators.BollingerPeriod,
			BollingerMult:   c.Indicators.BollingerMult,
			RSIPeriod:       c.Indicators.RSIPeriod,
			CCIPeriod:       c.Indicators.CCIPeriod,
			MACDFast:        c.Indicators.MACDFast,
			MACDSlow:        c.Indicators.MACDSlow,
			MACDSignal:      c.Indicators.MACDSignal,
		},
		Thresholds: screener.Thresholds{
			RSILow:  c.Thresholds.RSILow,
			RSIHigh: c.Thresholds.RSIHigh,
			CCILow:  c.Thresholds.CCILow,
			CCIHigh: c.Thresholds.CCIHigh,
		},
		GainPeriod:     model.Period(c.Periods.Gain),
		StockPeriod:    model.Period(c.Periods.Stock),
		MarketPeriod:   model.Period(c.Periods.Market),
		PatternPeriod:  model.Period(c.Periods.Pattern),
		BetaPeriod:     c.Backtest.BetaPeriod,
		IncludeMembers: c.Backtest.IncludeMembers,
		HistoryRange:   c.DataSource.HistoryRange,
		Interval:       c.DataSource.Interval,
	}
	for _, h := range c.Portfolio.Holdings {
		a.Holdings = append(a.Holdings, model.Holding{Ticker: h.Ticker, Weight: h.WeightOrDefault()})
	}
	return a
}
