package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motivator_bot/internal/app"
	"motivator_bot/internal/infra/config"
	idb "motivator_bot/internal/infra/database"
	"motivator_bot/internal/infra/logger"
	"motivator_bot/internal/infra/scheduler"
	"motivator_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLog := logger.Get().WithField("component", "main")
	mainLog.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLog.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLog.Info("Database connection established.")

	// Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	timingRepo := idb.NewPostgresTimingRepository(db)
	moodRepo := idb.NewPostgresMoodRepository(db)
	engagementRepo := idb.NewPostgresEngagementRepository(db)
	goalRepo := idb.NewPostgresGoalRepository(db)
	contentRepo := idb.NewPostgresContentRepository(db)

	// Telegram bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Get().WithField("component", "telebot")
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.WithError(err).Error("Bot handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLog.Fatalf("Could not create Telegram bot: %v", err)
	}
	tgClient := telegram.NewTelebotAdapter(bot)

	// Services
	dispatchService := app.NewDispatchService(
		userRepo, moodRepo, contentRepo, engagementRepo, tgClient,
		logger.Get().WithField("component", "dispatch"),
	)
	jobs := scheduler.New(logger.Get().WithField("component", "scheduler"))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	schedulingService := app.NewSchedulingService(
		userRepo, timingRepo, moodRepo, engagementRepo,
		jobs, dispatchService, rng, time.Now,
		logger.Get().WithField("component", "scheduling"),
		cfg.MoodLookbackDays,
	)
	adminService := app.NewAdminService(
		userRepo, timingRepo, moodRepo, engagementRepo, goalRepo, tgClient,
		logger.Get().WithField("component", "admin"),
		cfg.AdminTelegramID,
	)

	// Recurring ticks
	if err := scheduler.RegisterTicks(jobs, schedulingService,
		cfg.CronSpecHourlyScan, cfg.CronSpecDailyPlan, cfg.CronSpecMoodReminder); err != nil {
		mainLog.Fatalf("Could not register scheduler ticks: %v", err)
	}
	jobs.Start()

	// Handlers
	ctx := context.Background()
	handlerDeps := telegram.UserHandlerDeps{
		Users:       userRepo,
		Prefs:       timingRepo,
		Moods:       moodRepo,
		Goals:       goalRepo,
		Engagements: engagementRepo,
		Dispatch:    dispatchService,
		Log:         logger.Get().WithField("component", "handlers"),
	}
	telegram.RegisterUserCommands(ctx, bot, handlerDeps)
	telegram.RegisterCallbackHandlers(ctx, bot, handlerDeps)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, logger.Get().WithField("component", "handlers"))
	mainLog.Info("Handlers registered. Bot starting...")

	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("Shutting down...")
	bot.Stop()
	jobs.Stop()
	mainLog.Info("Application shut down gracefully.")
}
