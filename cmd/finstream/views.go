package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"FinStream/internal/dashboard"
	"FinStream/internal/model"

	"github.com/google/subcommands"
)

// viewCmd carries what every view command shares.
type viewCmd struct {
	flags  appFlags
	period string
}

func (c *viewCmd) setFlags(f *flag.FlagSet) {
	c.flags.register(f, false)
	f.StringVar(&c.period, "p", "", "display period (6H, 12H, 1D, 5D, 1M, 3M, 6M, 1Y); empty uses the config")
}

// run parses the period, wires the app and hands the dashboard to fn.
func (c *viewCmd) run(ctx context.Context, fn func(*dashboard.Service, model.Period) error) subcommands.ExitStatus {
	var period model.Period
	if c.period != "" {
		p, err := model.ParsePeriod(c.period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		period = p
	}
	a, err := newApp(c.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer a.Close()

	if err := fn(a.Dashboard, period); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type portfolioCmd struct{ viewCmd }

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display the portfolio summary, screen and accumulated gain" }
func (*portfolioCmd) Usage() string {
	return `finstream portfolio [-config <path>] [-mock] [-record]

  Prints the summary table sorted by RSI, the oversold and overbought
  holdings, and the backtest statistics against the first benchmark.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) { c.flags.register(f, false) }

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(svc *dashboard.Service, _ model.Period) error {
		view, err := svc.Portfolio(ctx)
		if err != nil {
			return err
		}
		fmt.Println(title("Portfolio"))
		fmt.Println(summaryTable(view.Summary))

		th := view.Thresholds
		fmt.Println(title(fmt.Sprintf("Oversold  RSI<%.0f and CCI<%.0f", th.RSILow, th.CCILow)))
		if len(view.Screen.Oversold) > 0 {
			fmt.Println(summaryTable(view.Screen.Oversold))
		}
		fmt.Println(title(fmt.Sprintf("Overbought  RSI>%.0f and CCI>%.0f", th.RSIHigh, th.CCIHigh)))
		if len(view.Screen.Overbought) > 0 {
			fmt.Println(summaryTable(view.Screen.Overbought))
		}

		fmt.Println(title(fmt.Sprintf("Accumulated Gain (%%) %s, %d bars vs %s", view.Period, view.Backtest.Window, view.Backtest.Reference)))
		rows := make([][]string, len(view.Backtest.Info))
		for i, r := range view.Backtest.Info {
			rows[i] = []string{r.Ticker, num(r.Gain), num(r.Delta), num(r.Stdev), num(r.Best), num(r.Worst), num(r.MaxDrawdown), num(r.Beta), num(r.Sharpe)}
		}
		fmt.Println(render([]string{"", "Gain", "Delta", "Stdev", "Best", "Worst", "MDD", "Beta", "Sharpe"}, rows))
		return nil
	})
}

func summaryTable(rows []model.SummaryRow) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Ticker, num(r.Price), num(r.ChangePercent), num(r.PE), num(r.High52wPct), num(r.Low52wPct), num(r.RSI), num(r.CCI)}
	}
	return render([]string{"", "Price", "Change(%)", "P/E", "52W_H(%)", "52W_L(%)", "RSI", "CCI"}, cells)
}

type stockCmd struct{ viewCmd }

func (*stockCmd) Name() string     { return "stock" }
func (*stockCmd) Synopsis() string { return "display the indicators of one ticker" }
func (*stockCmd) Usage() string {
	return `finstream stock [-p <period>] <ticker>

  Prints the close, moving averages, Bollinger bands, RSI, CCI and MACD of
  the ticker for every bar of the period.
`
}

func (c *stockCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *stockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: stock needs exactly one ticker")
		return subcommands.ExitUsageError
	}
	ticker := strings.ToUpper(f.Arg(0))
	return c.run(ctx, func(svc *dashboard.Service, period model.Period) error {
		view, err := svc.Stock(ctx, ticker, period)
		if err != nil {
			return err
		}
		ind := view.Indicators
		headers := []string{"Date", "Close"}
		for _, ma := range ind.MA {
			headers = append(headers, ma.Name)
		}
		headers = append(headers, "BB_U", "BB_L", "RSI", "CCI", "MACD", "Signal", "Hist")

		rows := make([][]string, len(ind.Close.Points))
		for i, p := range ind.Close.Points {
			row := []string{p.Time.Format("2006-01-02 15:04"), num(p.Value)}
			for _, ma := range ind.MA {
				row = append(row, num(ma.Points[i].Value))
			}
			row = append(row,
				num(ind.Upper.Points[i].Value), num(ind.Lower.Points[i].Value),
				num(ind.RSI.Points[i].Value), num(ind.CCI.Points[i].Value),
				num(ind.MACD.Points[i].Value), num(ind.MACDSignal.Points[i].Value), num(ind.MACDHist.Points[i].Value))
			rows[i] = row
		}
		fmt.Println(title(fmt.Sprintf("%s %s  %s", view.Ticker, view.Period, num(view.Quote.Price))))
		fmt.Println(render(headers, rows))
		return nil
	})
}

type patternsCmd struct{ viewCmd }

func (*patternsCmd) Name() string     { return "patterns" }
func (*patternsCmd) Synopsis() string { return "display candlestick pattern logs and markers" }
func (*patternsCmd) Usage() string {
	return `finstream patterns [-p <period>] [<ticker>]

  Prints the bullish and bearish pattern logs of the last month for every
  holding, then the pattern markers of the ticker (first holding by default).
`
}

func (c *patternsCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *patternsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker := strings.ToUpper(f.Arg(0))
	return c.run(ctx, func(svc *dashboard.Service, period model.Period) error {
		view, err := svc.Patterns(ctx, ticker, period)
		if err != nil {
			return err
		}
		for _, section := range []struct {
			name string
			hits []model.PatternHit
		}{{"Bullish patterns", view.Bullish}, {"Bearish patterns", view.Bearish}} {
			fmt.Println(title(section.name))
			if len(section.hits) == 0 {
				fmt.Println(mutedStyle.Render("none"))
			}
			for _, h := range section.hits {
				fmt.Println(h.Line())
			}
		}
		fmt.Println(title(fmt.Sprintf("Pattern chart %s %s", view.Ticker, view.Period)))
		return printMarkers(view)
	})
}

func printMarkers(view dashboard.PatternView) error {
	var rows [][]string
	for _, set := range []struct {
		name    string
		markers []model.PatternMarker
	}{{"Bullish", view.BullishMarkers}, {"Bearish", view.BearishMarkers}} {
		for _, m := range set.markers {
			rows = append(rows, []string{set.name, m.Time.Format("2006-01-02"), num(m.Price), fmt.Sprint(m.Strength)})
		}
	}
	if len(rows) == 0 {
		fmt.Println(mutedStyle.Render("no markers"))
		return nil
	}
	fmt.Println(render([]string{"Signal", "Date", "Close", "Strength"}, rows))
	return nil
}

type marketCmd struct{ viewCmd }

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "display index or futures prices" }
func (*marketCmd) Usage() string {
	return `finstream market [-p <period>]

  Prints the major indices during the regular session and the futures
  otherwise.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *marketCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(svc *dashboard.Service, period model.Period) error {
		view, err := svc.Market(ctx, period)
		if err != nil {
			return err
		}
		state := "closed, showing futures"
		if view.Open {
			state = "open"
		}
		fmt.Println(title(fmt.Sprintf("Market %s (%s)", view.Period, state)))
		rows := make([][]string, len(view.Charts))
		for i, mc := range view.Charts {
			rows[i] = []string{mc.Name, mc.Ticker, num(mc.Price), num(mc.Change)}
		}
		fmt.Println(render([]string{"", "Ticker", "Price", "Change(%)"}, rows))
		return nil
	})
}
