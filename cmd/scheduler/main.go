package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/app"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg.Logging)
	slog.Info("starting library scheduler")

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Initialize cron scheduler
	cronLogger := slogCronLogger{logger: logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, application); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	if cfg.Scheduler.RunSweepOnStartup {
		runSweep(application)
	}

	// Start the scheduler
	c.Start()
	slog.Info("scheduler started", "timezone", cfg.Scheduler.Timezone)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Close(shutdownCtx)
	slog.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, a *app.App) error {
	sched := a.Config.Scheduler

	// Deadline sweep: reminders, expiries and late-return penalties
	if _, err := c.AddFunc(sched.SweepSchedule, func() { runSweep(a) }); err != nil {
		return err
	}

	// Outbox relay: events whose publish after commit failed
	if _, err := c.AddFunc(sched.OutboxSchedule, func() { runOutboxRelay(a) }); err != nil {
		return err
	}

	// Notification retention
	if _, err := c.AddFunc(sched.CleanupSchedule, func() { runNotificationCleanup(a) }); err != nil {
		return err
	}

	slog.Info("cron jobs scheduled",
		"sweep", sched.SweepSchedule,
		"outbox_relay", sched.OutboxSchedule,
		"notification_cleanup", sched.CleanupSchedule)
	return nil
}

func jobContext(a *app.App) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.Config.Scheduler.JobTimeout)
}

func runSweep(a *app.App) {
	ctx, cancel := jobContext(a)
	defer cancel()

	if _, err := a.Sweep.Run(ctx); err != nil {
		slog.Error("deadline sweep failed", "error", err)
	}
}

func runOutboxRelay(a *app.App) {
	ctx, cancel := jobContext(a)
	defer cancel()

	report, err := a.Events.RelayPending(ctx, a.Config.Business.OutboxBatchSize)
	if err != nil {
		slog.Error("outbox relay failed", "error", err)
		return
	}
	if report.Delivered > 0 || report.Failed > 0 {
		slog.Info("outbox relay finished", "delivered", report.Delivered, "failed", report.Failed)
	}
}

func runNotificationCleanup(a *app.App) {
	ctx, cancel := jobContext(a)
	defer cancel()

	if _, err := a.Notifications.Cleanup(ctx, a.Config.Business.NotificationRetention); err != nil {
		slog.Error("notification cleanup failed", "error", err)
	}
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
