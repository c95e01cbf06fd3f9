package chart

import (
	"fmt"
	"math"

	"FinStream/internal/model"
)

// Title renders "name: price (delta%)" against the previous close.
func Title(name string, price, prevClose float64) string {
	delta := math.NaN()
	if prevClose != 0 {
		delta = (price - prevClose) / prevClose * 100
	}
	return fmt.Sprintf("%s: %.2f (%.2f%%)", name, price, delta)
}

func seriesRows(s model.IndicatorSeries, metric string) []Row {
	rows := make([]Row, len(s.Points))
	for i, p := range s.Points {
		rows[i] = Row{"Date": dateValue(p.Time), "Value": Number(p.Value), "Metric": metric}
	}
	return rows
}

func line(rows []Row, color string) Spec {
	s := Spec{
		Data: &Data{Values: rows},
		Mark: &Mark{Type: "line", Color: color},
		Encoding: &Encoding{
			X:       temporal("Date"),
			Y:       quantitative("Value"),
			Tooltip: tooltip("Metric", "Date", "Value"),
		},
	}
	return s
}

func rule(value float64, color string) Spec {
	return Spec{
		Data:     &Data{Values: []Row{{"Value": Number(value)}}},
		Mark:     &Mark{Type: "rule", Color: color, StrokeDash: []int{4, 4}},
		Encoding: &Encoding{Y: quantitative("Value")},
	}
}

// Price draws a close-price line with a dashed previous-close rule.
func Price(title string, closes model.IndicatorSeries, prevClose float64) Spec {
	return root(title, Spec{Layer: []Spec{
		line(seriesRows(closes, "Close"), "#1f77b4"),
		rule(prevClose, "gray"),
	}})
}

func candleRows(s model.Series) []Row {
	rows := make([]Row, len(s.Bars))
	for i, b := range s.Bars {
		rows[i] = Row{
			"Date":  dateValue(b.Time),
			"Open":  Number(b.Open),
			"High":  Number(b.High),
			"Low":   Number(b.Low),
			"Close": Number(b.Close),
		}
	}
	return rows
}

func candles() []Spec {
	color := &Channel{
		Condition: &Condition{Test: "datum.Open <= datum.Close", Value: "#06982d"},
		Value:     "#ae1325",
	}
	wick := Spec{
		Mark: &Mark{Type: "rule"},
		Encoding: &Encoding{
			X:     temporal("Date"),
			Y:     quantitative("Low"),
			Y2:    &Channel{Field: "High"},
			Color: color,
		},
	}
	body := Spec{
		Mark: &Mark{Type: "bar"},
		Encoding: &Encoding{
			X:       temporal("Date"),
			Y:       quantitative("Open"),
			Y2:      &Channel{Field: "Close"},
			Color:   color,
			Tooltip: tooltip("Date", "Open", "High", "Low", "Close"),
		},
	}
	return []Spec{wick, body}
}

// Overlay draws candles with Bollinger bands and moving averages on top.
func Overlay(title string, s model.Series, ind model.IndicatorSet) Spec {
	base := Spec{Data: &Data{Values: candleRows(s)}, Layer: candles()}

	band := make([]Row, len(ind.Upper.Points))
	for i, p := range ind.Upper.Points {
		band[i] = Row{"Date": dateValue(p.Time), "Upper": Number(p.Value), "Lower": Number(ind.Lower.Points[i].Value)}
	}
	bands := Spec{
		Data: &Data{Values: band},
		Mark: &Mark{Type: "area", Color: "#9ecae1", Opacity: 0.3},
		Encoding: &Encoding{
			X:  temporal("Date"),
			Y:  quantitative("Upper"),
			Y2: &Channel{Field: "Lower"},
		},
	}

	layers := []Spec{bands, base}
	palette := []string{"orange", "purple", "brown", "teal"}
	for i, ma := range ind.MA {
		layers = append(layers, line(seriesRows(ma, ma.Name), palette[i%len(palette)]))
	}
	return root(title, Spec{Layer: layers})
}

// Oscillator draws an RSI or CCI line between its low and high thresholds.
func Oscillator(title string, s model.IndicatorSeries, low, high float64) Spec {
	return root(title, Spec{Height: 150, Layer: []Spec{
		line(seriesRows(s, s.Name), "#1f77b4"),
		rule(low, "green"),
		rule(high, "red"),
	}})
}

// MACD stacks the MACD and signal lines above the histogram bars.
func MACD(title string, ind model.IndicatorSet) Spec {
	rows := append(seriesRows(ind.MACD, "MACD"), seriesRows(ind.MACDSignal, "Signal")...)
	lines := Spec{
		Height: 150,
		Data:   &Data{Values: rows},
		Mark:   &Mark{Type: "line"},
		Encoding: &Encoding{
			X:       temporal("Date"),
			Y:       quantitative("Value"),
			Color:   nominal("Metric"),
			Tooltip: tooltip("Metric", "Date", "Value"),
		},
	}
	hist := Spec{
		Height: 100,
		Data:   &Data{Values: seriesRows(ind.MACDHist, "Histogram")},
		Mark:   &Mark{Type: "bar"},
		Encoding: &Encoding{
			X: temporal("Date"),
			Y: quantitative("Value"),
			Color: &Channel{
				Condition: &Condition{Test: "datum.Value >= 0", Value: "#06982d"},
				Value:     "#ae1325",
			},
		},
	}
	return root(title, Spec{VConcat: []Spec{lines, hist}})
}

// Backtest draws one cumulative gain line per metric.
func Backtest(title string, source []model.GainPoint) Spec {
	rows := make([]Row, len(source))
	for i, p := range source {
		rows[i] = Row{"Metric": p.Metric, "Date": dateValue(p.Time), "Gain": Number(p.Gain)}
	}
	return root(title, Spec{
		Data: &Data{Values: rows},
		Mark: &Mark{Type: "line"},
		Encoding: &Encoding{
			X:       temporal("Date"),
			Y:       quantitative("Gain"),
			Color:   nominal("Metric"),
			Tooltip: tooltip("Metric", "Date", "Gain"),
		},
	})
}

// Patterns draws bullish and bearish markers at their bars' closes.
func Patterns(title string, bullish, bearish []model.PatternMarker) Spec {
	var rows []Row
	add := func(signal string, markers []model.PatternMarker) {
		for _, m := range markers {
			rows = append(rows, Row{"Signal": signal, "Date": dateValue(m.Time), "Value": Number(m.Price), "Strength": m.Strength})
		}
	}
	add("Bullish", bullish)
	add("Bearish", bearish)

	color := nominal("Signal")
	color.Scale = &Scale{Domain: []string{"Bullish", "Bearish"}, Range: []string{"#006400", "red"}}
	return root(title, Spec{
		Data: &Data{Values: rows},
		Mark: &Mark{Type: "point", Size: 150},
		Encoding: &Encoding{
			X:       temporal("Date"),
			Y:       quantitative("Value"),
			Color:   color,
			Tooltip: tooltip("Signal", "Date", "Value", "Strength"),
		},
	})
}

// PatternOverlay draws candles with the pattern markers on top.
func PatternOverlay(title string, s model.Series, bullish, bearish []model.PatternMarker) Spec {
	markers := Patterns("", bullish, bearish)
	markers.Schema, markers.Width = "", ""
	return root(title, Spec{Layer: []Spec{
		{Data: &Data{Values: candleRows(s)}, Layer: candles()},
		markers,
	}})
}
