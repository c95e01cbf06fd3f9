package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"FinStream/internal/dashboard"
	"FinStream/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Sender delivers chat messages.
type Sender interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// RefreshObserver is told about every refresh cycle.
type RefreshObserver interface {
	SetRefresh(at time.Time, err error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Dashboard *dashboard.Service
	Notifier  Sender
	Observers []RefreshObserver
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *dashboard.Service, tn Sender, observers ...RefreshObserver) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Dashboard: svc,
		Notifier:  tn,
		Observers: observers,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache refresh and the portfolio report tasks.
// An empty spec disables its task.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunReportNow executes the report task immediately.
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running refresh task")
	_, err := s.Dashboard.Refresh(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] refresh: %v", err)
	}
	now := time.Now()
	for _, o := range s.Observers {
		o.SetRefresh(now, err)
	}
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running report task")
	view, err := s.Dashboard.Portfolio(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] report: %v", err)
		s.trySend(fmt.Sprintf("❌ Portfolio report failed: %v", err))
		return
	}
	s.trySend(notifier.FormatSummary(view.Summary, view.Screen, view.Run.At))
	s.trySend(notifier.FormatBacktest(view.Backtest))

	pv, err := s.Dashboard.Patterns(s.Ctx, "", "")
	if err != nil {
		log.Printf("[ERROR] report patterns: %v", err)
		return
	}
	s.trySend(notifier.FormatPatterns(pv.Bullish, pv.Bearish))
}

const helpText = "Available commands:\n• /portfolio  accumulated gain table\n• /screen  summary with oversold/overbought\n• /patterns  candlestick pattern log\n• /refresh  clear cache and reload"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats address commands as /cmd@botname.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/portfolio":
		view, err := s.Dashboard.Portfolio(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatBacktest(view.Backtest)
	case "/screen":
		view, err := s.Dashboard.Portfolio(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatSummary(view.Summary, view.Screen, view.Run.At)
	case "/patterns":
		view, err := s.Dashboard.Patterns(ctx, "", "")
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatPatterns(view.Bullish, view.Bearish)
	case "/refresh":
		if _, err := s.Dashboard.Refresh(ctx); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return "✅ Cache cleared and data reloaded"
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
