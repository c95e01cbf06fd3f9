package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"FinStream/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

// DB exposes the handle for health probes.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_rows (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			window_size  INTEGER,
			reference    TEXT,
			row_order    INTEGER,
			ticker       TEXT,
			gain         REAL,
			delta        REAL,
			stdev        REAL,
			best         REAL,
			worst        REAL,
			max_drawdown REAL,
			beta         REAL,
			sharpe       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_run ON backtest_rows(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_ts ON backtest_rows(timestamp)`,

		`CREATE TABLE IF NOT EXISTS summary_rows (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT,
			price        REAL,
			change_pct   REAL,
			pe           REAL,
			high_52w_pct REAL,
			low_52w_pct  REAL,
			rsi          REAL,
			cci          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_ts ON summary_rows(timestamp)`,

		`CREATE TABLE IF NOT EXISTS pattern_hits (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			bar_date  TEXT,
			ticker    TEXT,
			rule      TEXT,
			polarity  TEXT,
			value     INTEGER
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pattern_unique ON pattern_hits(bar_date, ticker, rule, polarity)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN and infinities to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func (r *SQLiteRecorder) inTx(fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordBacktest(run Run, res model.BacktestResult) error {
	return r.inTx(func(tx *sql.Tx) error {
		for i, row := range res.Info {
			_, err := tx.Exec(`INSERT INTO backtest_rows
				(run_id, timestamp, window_size, reference, row_order, ticker,
				 gain, delta, stdev, best, worst, max_drawdown, beta, sharpe)
				VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				run.ID, run.At.Unix(), res.Window, res.Reference, i, row.Ticker,
				nullable(row.Gain), nullable(row.Delta), nullable(row.Stdev),
				nullable(row.Best), nullable(row.Worst), nullable(row.MaxDrawdown),
				nullable(row.Beta), nullable(row.Sharpe),
			)
			if err != nil {
				return fmt.Errorf("insert backtest row %s: %w", row.Ticker, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordSummary(run Run, rows []model.SummaryRow) error {
	return r.inTx(func(tx *sql.Tx) error {
		for _, row := range rows {
			_, err := tx.Exec(`INSERT INTO summary_rows
				(run_id, timestamp, ticker, price, change_pct, pe, high_52w_pct, low_52w_pct, rsi, cci)
				VALUES (?,?,?,?,?,?,?,?,?,?)`,
				run.ID, run.At.Unix(), row.Ticker, nullable(row.Price),
				nullable(row.ChangePercent), nullable(row.PE),
				nullable(row.High52wPct), nullable(row.Low52wPct),
				nullable(row.RSI), nullable(row.CCI),
			)
			if err != nil {
				return fmt.Errorf("insert summary row %s: %w", row.Ticker, err)
			}
		}
		return nil
	})
}

// RecordPatterns stores hits once per bar, ticker and rule; hits seen in an
// earlier cycle are ignored.
func (r *SQLiteRecorder) RecordPatterns(run Run, polarity model.Polarity, hits []model.PatternHit) error {
	return r.inTx(func(tx *sql.Tx) error {
		for _, h := range hits {
			_, err := tx.Exec(`INSERT OR IGNORE INTO pattern_hits
				(run_id, timestamp, bar_date, ticker, rule, polarity, value)
				VALUES (?,?,?,?,?,?,?)`,
				run.ID, run.At.Unix(), h.Time.Format("2006-01-02"), h.Ticker, h.Rule, polarity.String(), h.Value,
			)
			if err != nil {
				return fmt.Errorf("insert pattern hit %s: %w", h.Line(), err)
			}
		}
		return nil
	})
}

// RecentRuns lists the latest backtest cycles with their portfolio row, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := r.db.Query(`SELECT run_id, timestamp, window_size, gain, delta
		FROM backtest_rows WHERE ticker = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, model.PortfolioTicker, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s           RunSummary
			ts          int64
			gain, delta sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &ts, &s.Window, &gain, &delta); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.At = time.Unix(ts, 0)
		s.PortfolioGain = orNaN(gain)
		s.Delta = orNaN(delta)
		out = append(out, s)
	}
	return out, rows.Err()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
