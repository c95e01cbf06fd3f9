package recorder

import "FinStream/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBacktest(_ Run, _ model.BacktestResult) error                 { return nil }
func (n *NoopRecorder) RecordSummary(_ Run, _ []model.SummaryRow) error                    { return nil }
func (n *NoopRecorder) RecordPatterns(_ Run, _ model.Polarity, _ []model.PatternHit) error { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]RunSummary, error)                             { return nil, nil }
func (n *NoopRecorder) Close() error                                                       { return nil }
