package collector

import (
	"context"

	"FinStream/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns bars ascending by time for a Yahoo-style interval ("1d", "5m") and range ("1y", "5d").
	FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.PriceBar, error)
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}
