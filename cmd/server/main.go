package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammad-sahal/chat-app/internal/api"
	"github.com/mohammad-sahal/chat-app/internal/call"
	"github.com/mohammad-sahal/chat-app/internal/config"
	"github.com/mohammad-sahal/chat-app/internal/database"
	"github.com/mohammad-sahal/chat-app/internal/events"
	"github.com/mohammad-sahal/chat-app/internal/hub"
	"github.com/mohammad-sahal/chat-app/internal/ratelimit"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
	"github.com/mohammad-sahal/chat-app/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	// Database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create postgres pool", "err", err)
		os.Exit(1)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to create redis client", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	groupRepo := repositories.NewPostgresGroupRepository(postgresPool)
	messageRepo := repositories.NewPostgresMessageRepository(postgresPool)
	statusRepo := repositories.NewRedisStatusRepository(redisClient)

	// Core: presence, fanout, calls, event routing
	registry := hub.NewRegistry()
	rooms := hub.NewRoomTracker()
	dispatcher := hub.NewDispatcher(registry, rooms)
	coordinator := call.NewCoordinator(dispatcher, cfg.CallRingTimeout)
	limiter := ratelimit.New(cfg.MessageRatePerSec, cfg.MessageRateBurst, 10*time.Minute)
	eventRouter := events.NewRouter(registry, rooms, dispatcher, coordinator, messageRepo, groupRepo, statusRepo, limiter)

	// Services and HTTP surface
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	apiServer := api.NewServer(authService, userRepo, groupRepo, messageRepo, statusRepo, registry, coordinator, eventRouter)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: apiServer.Routes(),
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "port", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
