package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinStream/internal/metrics"
	"FinStream/internal/notifier"
	"FinStream/internal/scheduler"
	"FinStream/internal/server"

	"github.com/google/subcommands"
)

type serveCmd struct {
	flags      appFlags
	addr       string
	runOnStart bool
	noTelegram bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard API, scheduler and Telegram bot" }
func (*serveCmd) Usage() string {
	return `finstream serve [-config <path>] [-addr <addr>] [-mock] [-report-now]

  Serves the JSON dashboard API with /metrics and /healthz, refreshes the
  history cache on a schedule and posts the daily report to Telegram.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.flags.register(f, true)
	f.StringVar(&c.addr, "addr", "", "listen address (defaults to server.addr)")
	f.BoolVar(&c.runOnStart, "report-now", os.Getenv("RUN_ON_START") == "true", "send the report once at startup")
	f.BoolVar(&c.noTelegram, "no-telegram", false, "disable Telegram polling and reports")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Println("[INFO] FinStream starting...")
	a, err := newApp(c.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	met := metrics.New()
	a.Collector.Observer = met
	a.Dashboard.Observer = met

	health := metrics.NewHealthStatus()
	var redis metrics.Pinger
	if a.Redis != nil {
		redis = a.Redis
	}
	var db *sql.DB
	if a.SQLite != nil {
		db = a.SQLite.DB()
	}
	health.StartLivenessChecker(ctx, redis, db, 30*time.Second)

	tn := notifier.NewTelegramNotifier(a.Config.Telegram.BotToken, a.Config.Telegram.ChatID, a.Config.Proxy)
	if c.noTelegram {
		tn = notifier.NewTelegramNotifier("", "", "")
	}

	sched := scheduler.NewScheduler(ctx, a.Dashboard, tn, health, met)
	if err := sched.RegisterAll(a.Config.Schedule.RefreshCron, a.Config.Schedule.ReportCron); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[WARN] Telegram credentials not set, bot disabled")
	}

	if c.runOnStart {
		log.Println("[INFO] report-now enabled, executing report task")
		go sched.RunReportNow()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	addr := c.addr
	if addr == "" {
		addr = a.Config.Server.Addr
	}
	srv := server.New(a.Dashboard, met.Handler(), health)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.Printf("[ERROR] http server: %v", err)
		return subcommands.ExitFailure
	}
	log.Println("[INFO] FinStream stopped")
	return subcommands.ExitSuccess
}
