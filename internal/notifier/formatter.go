package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"FinStream/internal/model"
	"FinStream/internal/screener"
)

// num renders a value with two decimals, or "-" when undefined.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func signed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%+.2f", v)
}

// FormatSummary formats the portfolio summary and screen into a Telegram message.
func FormatSummary(rows []model.SummaryRow, res screener.Result, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Portfolio</b> | %s\n\n", at.Format("2006-01-02 15:04")))
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-7s %9s %7s %7s %7s\n", "Ticker", "Price", "Chg%", "RSI", "CCI"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-7s %9s %7s %7s %7s\n",
			html.EscapeString(r.Ticker), num(r.Price), signed(r.ChangePercent), num(r.RSI), num(r.CCI)))
	}
	b.WriteString("</pre>\n")

	writeZone := func(title string, rows []model.SummaryRow) {
		if len(rows) == 0 {
			return
		}
		names := make([]string, len(rows))
		for i, r := range rows {
			names[i] = html.EscapeString(r.Ticker)
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", title, strings.Join(names, ", ")))
	}
	writeZone("🟢 <b>Oversold</b>", res.Oversold)
	writeZone("🔴 <b>Overbought</b>", res.Overbought)
	if len(res.Oversold) == 0 && len(res.Overbought) == 0 {
		b.WriteString("No oversold or overbought holdings.\n")
	}
	return b.String()
}

// FormatPatterns lists pattern scan hits as log lines.
func FormatPatterns(bullish, bearish []model.PatternHit) string {
	var b strings.Builder
	b.WriteString("🕯 <b>Candlestick patterns</b>\n")
	section := func(title string, hits []model.PatternHit) {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n", title, len(hits)))
		if len(hits) == 0 {
			b.WriteString("  none\n")
			return
		}
		b.WriteString("<pre>")
		for _, h := range hits {
			b.WriteString(html.EscapeString(h.Line()))
			b.WriteString("\n")
		}
		b.WriteString("</pre>")
	}
	section("Bullish", bullish)
	section("Bearish", bearish)
	return b.String()
}

// FormatBacktest renders the backtest statistics table.
func FormatBacktest(res model.BacktestResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Accumulated gain</b> | %d bars vs %s\n", res.Window, html.EscapeString(res.Reference)))
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-9s %7s %7s %6s %7s %6s %6s\n", "", "Gain", "Delta", "Stdev", "MDD", "Beta", "Sharpe"))
	for _, r := range res.Info {
		b.WriteString(fmt.Sprintf("%-9s %7s %7s %6s %7s %6s %6s\n",
			html.EscapeString(r.Ticker), signed(r.Gain), signed(r.Delta), num(r.Stdev),
			num(r.MaxDrawdown), num(r.Beta), num(r.Sharpe)))
	}
	b.WriteString("</pre>")
	return b.String()
}
