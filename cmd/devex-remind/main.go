package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/devex-hq/devex-api/internal/config"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/logger"
	"github.com/devex-hq/devex-api/internal/services"
	"go.uber.org/zap"
)

// devex-remind runs the streak reminder pass once, for cron hosts that
// would rather not keep the API's scheduler.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	users := services.NewUserService(db, cfg.StreakLocation)
	mailer := services.NewEmailService(cfg.SMTP, cfg.BaseURL)
	reminders := services.NewReminderService(users, mailer, cfg.StreakLocation, cfg.ReminderLocation, log)

	result, err := reminders.RunOnce(ctx)
	if err != nil {
		log.Error("reminder run failed", zap.Error(err))
		db.Close()
		os.Exit(1)
	}

	fmt.Printf("Checked %d users, sent %d reminders, %d failed\n", result.Checked, result.Sent, result.Failed)
}
