package recorder

import (
	"time"

	"FinStream/internal/model"

	"github.com/google/uuid"
)

// Run identifies one refresh cycle; every row written in a cycle shares it.
type Run struct {
	ID string
	At time.Time
}

// NewRun stamps a new cycle.
func NewRun() Run {
	return Run{ID: uuid.NewString(), At: time.Now()}
}

// RunSummary is one recorded cycle as listed by RecentRuns.
type RunSummary struct {
	ID            string    `json:"id"`
	At            time.Time `json:"at"`
	Window        int       `json:"window"`
	PortfolioGain float64   `json:"portfolio_gain"`
	Delta         float64   `json:"delta"`
}

// Recorder persists analytics history.
type Recorder interface {
	RecordBacktest(run Run, res model.BacktestResult) error
	RecordSummary(run Run, rows []model.SummaryRow) error
	RecordPatterns(run Run, polarity model.Polarity, hits []model.PatternHit) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
