package calculator

import "github.com/markcheno/go-talib"

// CCI computes the commodity channel index from typical prices. The first
// period-1 entries are NaN. Inputs must be equal length.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period < 2 || len(highs) != n || len(lows) != n || n < period {
		return nanSlice(n)
	}
	return maskWarmup(talib.Cci(highs, lows, closes, period), period-1)
}

// MACD returns the MACD line (EMA fast minus EMA slow), its signal line (EMA
// of the MACD line) and the histogram (line minus signal).
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	line, sig, hist = nanSlice(n), nanSlice(n), nanSlice(n)
	if fast <= 0 || signal <= 0 || slow <= fast || n < slow+signal-1 {
		return line, sig, hist
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	start := slow - 1
	for i := start; i < n; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sigTail := EMA(line[start:], signal)
	for i, v := range sigTail {
		sig[start+i] = v
		hist[start+i] = line[start+i] - v
	}
	return line, sig, hist
}
