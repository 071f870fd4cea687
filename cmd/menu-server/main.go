package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"menu-planner/internal/api"
	"menu-planner/internal/app"
	"menu-planner/internal/config"
	"menu-planner/internal/database"
	"menu-planner/internal/lock"
	"menu-planner/internal/logger"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/preferences"
	"menu-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		zlog.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	plans, err := app.OpenPlanStore(cfg.Persistence, db.SQL)
	if err != nil {
		zlog.Fatal("Failed to initialize plan store", zap.Error(err))
	}
	metricsStore := metrics.NewStore(db.SQL)
	inbox := notify.NewRepository(db.SQL)

	gate, err := lock.New(ctx, cfg.Lock)
	if err != nil {
		zlog.Fatal("Failed to initialize regeneration gate", zap.Error(err))
	}
	if closer, ok := gate.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// 3. Services
	engine := app.NewEngine(cfg.Regeneration, nil)
	application := app.NewApp(engine, plans, preferences.NewRepository(db.SQL), gate, metricsStore, zlog)

	deps := api.Deps{
		Menus:          application,
		Inbox:          inbox,
		Today:          engine.Today,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DataDir:        cfg.DataDir(),
		Logger:         zlog,
	}

	var sender notify.Sender
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg.Telegram, application, metricsStore, cfg.DataDir(), zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize Telegram bot", zap.Error(err))
		}
		deps.Webhook = bot.WebhookHandler()
		sender = bot
	} else {
		zlog.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	// 4. Reminder scheduler
	if cfg.Reminder.Enabled {
		at, err := config.ParseClock(cfg.Reminder.Time)
		if err != nil {
			zlog.Fatal("Invalid reminder time", zap.Error(err))
		}
		scheduler := notify.NewScheduler(plans, inbox, sender, at, zlog)
		scheduler.SetRecorder(metricsStore)
		go scheduler.Run(ctx)
		zlog.Info("Reminder scheduler started", zap.String("at", cfg.Reminder.Time))
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zlog.Info("Menu server listening", zap.Int("port", cfg.Server.Port),
			zap.String("persistence", cfg.Persistence.Backend), zap.String("lock", cfg.Lock.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	zlog.Info("Server exiting")
}
