package server

import (
	"time"

	"FinStream/internal/chart"
	"FinStream/internal/dashboard"
	"FinStream/internal/model"
	"FinStream/internal/recorder"
)

// JSON shapes of the dashboard views. Undefined numbers encode as null.

type summaryRow struct {
	Ticker        string       `json:"ticker"`
	Price         chart.Number `json:"price"`
	ChangePercent chart.Number `json:"change_pct"`
	PE            chart.Number `json:"pe"`
	High52wPct    chart.Number `json:"high_52w_pct"`
	Low52wPct     chart.Number `json:"low_52w_pct"`
	RSI           chart.Number `json:"rsi"`
	CCI           chart.Number `json:"cci"`
}

func toSummaryRows(rows []model.SummaryRow) []summaryRow {
	out := make([]summaryRow, len(rows))
	for i, r := range rows {
		out[i] = summaryRow{
			Ticker:        r.Ticker,
			Price:         chart.Number(r.Price),
			ChangePercent: chart.Number(r.ChangePercent),
			PE:            chart.Number(r.PE),
			High52wPct:    chart.Number(r.High52wPct),
			Low52wPct:     chart.Number(r.Low52wPct),
			RSI:           chart.Number(r.RSI),
			CCI:           chart.Number(r.CCI),
		}
	}
	return out
}

type backtestRow struct {
	Ticker      string       `json:"ticker"`
	Gain        chart.Number `json:"gain"`
	Delta       chart.Number `json:"delta"`
	Stdev       chart.Number `json:"stdev"`
	Best        chart.Number `json:"best"`
	Worst       chart.Number `json:"worst"`
	MaxDrawdown chart.Number `json:"mdd"`
	Beta        chart.Number `json:"beta"`
	Sharpe      chart.Number `json:"sharpe"`
}

type thresholds struct {
	RSILow  float64 `json:"rsi_low"`
	RSIHigh float64 `json:"rsi_high"`
	CCILow  float64 `json:"cci_low"`
	CCIHigh float64 `json:"cci_high"`
}

type portfolioResponse struct {
	RunID      string        `json:"run_id"`
	At         time.Time     `json:"at"`
	Period     model.Period  `json:"period"`
	Summary    []summaryRow  `json:"summary"`
	Oversold   []summaryRow  `json:"oversold"`
	Overbought []summaryRow  `json:"overbought"`
	Thresholds thresholds    `json:"thresholds"`
	Window     int           `json:"window"`
	Reference  string        `json:"reference"`
	Backtest   []backtestRow `json:"backtest"`
	Chart      chart.Spec    `json:"chart"`
}

func toPortfolioResponse(v dashboard.PortfolioView) portfolioResponse {
	resp := portfolioResponse{
		RunID:      v.Run.ID,
		At:         v.Run.At,
		Period:     v.Period,
		Summary:    toSummaryRows(v.Summary),
		Oversold:   toSummaryRows(v.Screen.Oversold),
		Overbought: toSummaryRows(v.Screen.Overbought),
		Thresholds: thresholds{
			RSILow:  v.Thresholds.RSILow,
			RSIHigh: v.Thresholds.RSIHigh,
			CCILow:  v.Thresholds.CCILow,
			CCIHigh: v.Thresholds.CCIHigh,
		},
		Window:    v.Backtest.Window,
		Reference: v.Backtest.Reference,
		Backtest:  make([]backtestRow, len(v.Backtest.Info)),
		Chart:     v.GainChart,
	}
	for i, r := range v.Backtest.Info {
		resp.Backtest[i] = backtestRow{
			Ticker:      r.Ticker,
			Gain:        chart.Number(r.Gain),
			Delta:       chart.Number(r.Delta),
			Stdev:       chart.Number(r.Stdev),
			Best:        chart.Number(r.Best),
			Worst:       chart.Number(r.Worst),
			MaxDrawdown: chart.Number(r.MaxDrawdown),
			Beta:        chart.Number(r.Beta),
			Sharpe:      chart.Number(r.Sharpe),
		}
	}
	return resp
}

type quote struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	QuoteType     string       `json:"quote_type"`
	MarketState   string       `json:"market_state"`
	Price         chart.Number `json:"price"`
	PreviousClose chart.Number `json:"previous_close"`
	ChangePercent chart.Number `json:"change_pct"`
	TrailingPE    chart.Number `json:"trailing_pe"`
	High52w       chart.Number `json:"high_52w"`
	Low52w        chart.Number `json:"low_52w"`
}

func toQuote(q model.Quote) quote {
	return quote{
		Symbol:        q.Symbol,
		Name:          q.Name,
		QuoteType:     q.QuoteType,
		MarketState:   q.MarketState,
		Price:         chart.Number(q.Price),
		PreviousClose: chart.Number(model.Value(q.PreviousClose)),
		ChangePercent: chart.Number(model.Value(q.ChangePercent)),
		TrailingPE:    chart.Number(model.Value(q.TrailingPE)),
		High52w:       chart.Number(model.Value(q.FiftyTwoWeekHigh)),
		Low52w:        chart.Number(model.Value(q.FiftyTwoWeekLow)),
	}
}

type stockResponse struct {
	Ticker string                  `json:"ticker"`
	Period model.Period            `json:"period"`
	Quote  quote                   `json:"quote"`
	Latest map[string]chart.Number `json:"latest"`
	Charts []chart.Spec            `json:"charts"`
}

func toStockResponse(v dashboard.StockView) stockResponse {
	ind := v.Indicators
	latest := map[string]chart.Number{
		"close":       chart.Number(ind.Close.Last()),
		"bb_upper":    chart.Number(ind.Upper.Last()),
		"bb_lower":    chart.Number(ind.Lower.Last()),
		"rsi":         chart.Number(ind.RSI.Last()),
		"cci":         chart.Number(ind.CCI.Last()),
		"macd":        chart.Number(ind.MACD.Last()),
		"macd_signal": chart.Number(ind.MACDSignal.Last()),
		"macd_hist":   chart.Number(ind.MACDHist.Last()),
	}
	for _, ma := range ind.MA {
		latest[ma.Name] = chart.Number(ma.Last())
	}
	return stockResponse{Ticker: v.Ticker, Period: v.Period, Quote: toQuote(v.Quote), Latest: latest, Charts: v.Charts}
}

type patternsResponse struct {
	Ticker  string       `json:"ticker"`
	Period  model.Period `json:"period"`
	Bullish []string     `json:"bullish"`
	Bearish []string     `json:"bearish"`
	Chart   chart.Spec   `json:"chart"`
}

func lines(hits []model.PatternHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Line()
	}
	return out
}

func toPatternsResponse(v dashboard.PatternView) patternsResponse {
	return patternsResponse{
		Ticker:  v.Ticker,
		Period:  v.Period,
		Bullish: lines(v.Bullish),
		Bearish: lines(v.Bearish),
		Chart:   v.Chart,
	}
}

type marketChart struct {
	Ticker        string       `json:"ticker"`
	Name          string       `json:"name"`
	Price         chart.Number `json:"price"`
	ChangePercent chart.Number `json:"change_pct"`
	Chart         chart.Spec   `json:"chart"`
}

type marketResponse struct {
	Open   bool          `json:"open"`
	Period model.Period  `json:"period"`
	Charts []marketChart `json:"charts"`
}

func toMarketResponse(v dashboard.MarketView) marketResponse {
	resp := marketResponse{Open: v.Open, Period: v.Period, Charts: make([]marketChart, len(v.Charts))}
	for i, c := range v.Charts {
		resp.Charts[i] = marketChart{
			Ticker:        c.Ticker,
			Name:          c.Name,
			Price:         chart.Number(c.Price),
			ChangePercent: chart.Number(c.Change),
			Chart:         c.Chart,
		}
	}
	return resp
}

type runSummary struct {
	ID            string       `json:"id"`
	At            time.Time    `json:"at"`
	Window        int          `json:"window"`
	PortfolioGain chart.Number `json:"portfolio_gain"`
	Delta         chart.Number `json:"delta"`
}

func toRunSummaries(runs []recorder.RunSummary) []runSummary {
	out := make([]runSummary, len(runs))
	for i, r := range runs {
		out[i] = runSummary{
			ID:            r.ID,
			At:            r.At,
			Window:        r.Window,
			PortfolioGain: chart.Number(r.PortfolioGain),
			Delta:         chart.Number(r.Delta),
		}
	}
	return out
}
