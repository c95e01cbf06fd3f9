package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"FinStream/internal/collector"
	"FinStream/internal/config"
	"FinStream/internal/dashboard"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Enabled() bool { return true }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type refreshRecorder struct {
	calls int
	err   error
}

func (r *refreshRecorder) SetRefresh(_ time.Time, err error) {
	r.calls++
	r.err = err
}

func newTestScheduler(t *testing.T, m *collector.MockFetcher) (*Scheduler, *fakeSender, *refreshRecorder) {
	t.Helper()
	t.Setenv("FINSTREAM_PORTFOLIO", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	svc := dashboard.NewService(collector.NewCollector(m, collector.NewMemoryCache(), time.Hour), config.NewStore(cfg, ""), nil)
	sender := &fakeSender{}
	obs := &refreshRecorder{}
	return NewScheduler(context.Background(), svc, sender, obs), sender, obs
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})

	tests := []struct {
		command string
		want    string
	}{
		{"/portfolio", "Accumulated gain"},
		{"/screen", "<b>Portfolio</b>"},
		{"/patterns@finstream_bot", "Candlestick patterns"},
		{"/refresh", "Cache cleared"},
		{"hello", "Available commands"},
		{"   ", "Available commands"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(context.Background(), tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q) = %q, want it to contain %q", tt.command, got, tt.want)
		}
	}
}

func TestHandleCommandReportsErrors(t *testing.T) {
	m := &collector.MockFetcher{Price: 100, Missing: map[string]bool{"SPY": true, "QQQ": true}}
	s, _, _ := newTestScheduler(t, m)

	if got := s.HandleCommand(context.Background(), "/portfolio"); !strings.HasPrefix(got, "❌") {
		t.Errorf("expected error reply, got %q", got)
	}
}

func TestReportSendsDigest(t *testing.T) {
	s, sender, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})
	s.RunReportNow()

	if len(sender.sent) != 3 {
		t.Fatalf("expected summary, backtest and pattern messages, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[1], "Portfolio") {
		t.Errorf("backtest message missing portfolio row: %s", sender.sent[1])
	}
}

func TestRefreshNotifiesObservers(t *testing.T) {
	s, _, obs := newTestScheduler(t, &collector.MockFetcher{Price: 100})
	s.refreshTask()

	if obs.calls != 1 || obs.err != nil {
		t.Errorf("unexpected refresh observation calls=%d err=%v", obs.calls, obs.err)
	}
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100})
	if err := s.RegisterAll("0 */15 * * * 1-5", "0 30 16 * * 1-5"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := len(s.Cron.Entries()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected error for invalid spec")
	}
}
