package model

import "time"

// PortfolioTicker is the synthetic row key for the weighted portfolio.
const PortfolioTicker = "Portfolio"

// Holding is a portfolio member and its relative weight.
type Holding struct {
	Ticker string
	Weight float64
}

// GainPoint is one row of the backtest source table.
type GainPoint struct {
	Metric string
	Time   time.Time
	Gain   float64
}

// BacktestRow is the per-instrument statistics row. Undefined metrics are NaN.
type BacktestRow struct {
	Ticker      string
	Gain        float64
	Delta       float64
	Stdev       float64
	Best        float64
	Worst       float64
	MaxDrawdown float64
	Beta        float64
	Sharpe      float64
}

// BacktestResult pairs the normalized series with their statistics.
type BacktestResult struct {
	Window    int
	Reference string
	Source    []GainPoint
	Info      []BacktestRow
}

// SummaryRow is one line of the portfolio summary table.
type SummaryRow struct {
	Ticker        string
	Price         float64
	ChangePercent float64
	PE            float64
	High52wPct    float64
	Low52wPct     float64
	RSI           float64
	CCI           float64
}
