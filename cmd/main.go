/**
 * @description
 * This is the main entry point for the Matu Channel membership bot.
 * It wires together configuration, the Postgres membership store, the
 * Telegram client, the optional event producer, the approval engine, the
 * expiry sweep, the long-poll update loop, and the keep-alive HTTP server,
 * then runs until a termination signal arrives.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/nahomkasa999/MatuTG/internal/api"
	"github.com/nahomkasa999/MatuTG/internal/app"
	"github.com/nahomkasa999/MatuTG/internal/bot"
	"github.com/nahomkasa999/MatuTG/internal/config"
	"github.com/nahomkasa999/MatuTG/internal/store"
	"github.com/nahomkasa999/MatuTG/pkg/rabbitmq"
	"github.com/nahomkasa999/MatuTG/pkg/telegramclient"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Establish the database connection.
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Optional lifecycle event publishing.
	var events app.EventPublisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.EventExchange)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		events = producer
		logger.Info("event producer connected", "exchange", cfg.EventExchange)
	}

	// Initialize application layers.
	repository := store.NewRepository(dbpool)
	tgClient := telegramclient.NewClient(telegramclient.DefaultBaseURL, cfg.TelegramBotToken)
	notifier := app.NewNotifier(tgClient, logger)
	engine := app.NewService(repository, tgClient, notifier, events, *cfg, logger)
	sweeper := app.NewSweeper(repository, tgClient, notifier, events, *cfg, logger)
	scheduler := app.NewScheduler(sweeper, logger, cfg.SweepSchedule)
	updateLoop := bot.New(tgClient, engine, *cfg, logger)

	// Start the expiry sweep schedule (includes an immediate first run).
	scheduler.Start()

	// Start the long-poll update loop.
	go updateLoop.Run(ctx)
	logger.Info("update loop started")

	// Keep-alive self-ping for hosting platforms that sleep idle services.
	pinger := api.NewPinger(cfg.ServerURL, cfg.PingInterval, logger)
	go pinger.Run(ctx)

	// Start the health-check HTTP server.
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: api.NewRouter(),
	}
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")
	cancel()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("bot stopped")
}
