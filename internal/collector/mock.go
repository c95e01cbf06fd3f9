package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinStream/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit data get a generated gentle uptrend around Price.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.PriceBar
	Quotes map[string]model.Quote
	// Missing lists symbols that fail as unknown.
	Missing map[string]bool

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many history requests reached the fetcher.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchHistory(_ context.Context, symbol, _, _ string) ([]model.PriceBar, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Missing[symbol] {
		return nil, fmt.Errorf("mock: unknown symbol %s", symbol)
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, 260), nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (model.Quote, error) {
	if m.Missing[symbol] {
		return model.Quote{}, fmt.Errorf("mock: unknown symbol %s", symbol)
	}
	if q, ok := m.Quotes[symbol]; ok {
		return q, nil
	}
	return model.Quote{Symbol: symbol, Name: symbol, Price: m.Price, MarketState: "REGULAR", FetchedAt: time.Now()}, nil
}

func generateMockBars(basePrice float64, count int) []model.PriceBar {
	end := time.Now().Truncate(24 * time.Hour)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
