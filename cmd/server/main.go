package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ftrbnd/heardle/internal/auth"
	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/handler"
	"github.com/ftrbnd/heardle/internal/kafka"
	"github.com/ftrbnd/heardle/internal/postgres"
	"github.com/ftrbnd/heardle/internal/redis"
	"github.com/ftrbnd/heardle/internal/rotation"
	"github.com/ftrbnd/heardle/internal/service"
	"github.com/ftrbnd/heardle/internal/session"
	"github.com/ftrbnd/heardle/internal/websocket"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	cache, err := redis.NewCache(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the daily puzzle row if the catalog has songs and no puzzle exists
	nextBoundary := time.Now().Truncate(cfg.Rotation.Period).Add(cfg.Rotation.Period)
	if err := repo.InitDailyPuzzle(ctx, nextBoundary); err != nil {
		logger.Warn("failed to seed daily puzzle, catalog may be empty", "error", err)
	}

	// Prime the puzzle cache
	if puzzle, err := repo.GetDailyPuzzle(ctx); err == nil {
		if err := cache.SetDailyPuzzle(ctx, *puzzle); err != nil {
			logger.Warn("failed to prime puzzle cache", "error", err)
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Anonymous session state lives in process memory only
	localSessions := session.NewStore()

	// Initialize Kafka producer for the completion stream
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka producer, continuing without completion stream", "error", err)
		}
	}

	// Initialize services
	authService := auth.NewService(repo, &cfg.Auth, logger)

	var publisher service.CompletionPublisher
	if producer != nil {
		publisher = producer
	}
	gameService := service.NewGameService(
		repo,
		repo,
		repo,
		cache,
		localSessions,
		wsHub,
		publisher,
		&cfg.Game,
		logger,
	)

	leaderboardService := service.NewLeaderboardService(cache, repo, logger)

	// Initialize rotation worker
	rotationWorker := rotation.NewWorker(repo, cache, localSessions, wsHub, &cfg.Rotation, logger)

	// Catch up on any boundary passed while the server was down
	rotationWorker.RunOnce(ctx)

	if cfg.Rotation.Enabled {
		if err := rotationWorker.Start(ctx); err != nil {
			logger.Error("failed to start rotation worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for completion events
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, leaderboardService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(gameService, leaderboardService, authService, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop Kafka producer
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close Kafka producer", "error", err)
		}
	}

	// Stop rotation worker
	if err := rotationWorker.Stop(); err != nil {
		logger.Error("failed to stop rotation worker", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
