// Command authd runs the marketplace auth service: the engine, its
// Postgres user store and Redis token registries, and the HTTP surface.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/manfra-io/marketauth"
	"github.com/manfra-io/marketauth/internal/httpapi"
	"github.com/manfra-io/marketauth/internal/observability"
	"github.com/manfra-io/marketauth/internal/userstore"
)

func main() {
	_ = godotenv.Load()

	logger := observability.NewLogger()

	if err := run(logger); err != nil {
		logger.Error("fatal", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(logger *observability.Logger) error {
	cfg, err := marketauth.FromEnv()
	if err != nil {
		return err
	}

	databaseURL := mustEnv("DATABASE_URL")
	redisURL := envOrDefault("REDIS_URL", "redis://localhost:6379")
	port := envOrDefault("PORT", "8080")
	environment := envOrDefault("APP_ENV", "development")

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), environment); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}
	defer observability.FlushSentry()

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.PingContext(startupCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	users := userstore.NewPostgres(database)
	if err := users.EnsureSchema(startupCtx); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	engine, err := marketauth.New().
		WithConfig(cfg).
		WithRedis(redisClient).
		WithUserStore(users).
		WithWarnLogger(logger.WarnHook()).
		Build()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := httpapi.NewServer(engine, logger)
	server.AddHealthCheck("postgres", database.PingContext)
	server.AddHealthCheck("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	server.Routes(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", map[string]any{"addr": ":" + port, "env": environment})
		errCh <- e.Start(":" + port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
	case sig := <-stop:
		logger.Info("server_shutdown", map[string]any{"signal": sig.String()})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func mustEnv(name string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		fmt.Fprintf(os.Stderr, "missing required env: %s\n", name)
		os.Exit(1)
	}
	return value
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}
