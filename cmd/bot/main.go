package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/psbotkit/scribe/internal/adapter/api"
	"github.com/psbotkit/scribe/internal/adapter/auth"
	redisbuf "github.com/psbotkit/scribe/internal/adapter/buffer/redis"
	"github.com/psbotkit/scribe/internal/adapter/buffer/spool"
	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/adapter/rooms"
	"github.com/psbotkit/scribe/internal/adapter/store/postgres"
	"github.com/psbotkit/scribe/internal/adapter/store/sqlite"
	"github.com/psbotkit/scribe/internal/command"
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/pkg/config"
	"github.com/psbotkit/scribe/internal/pkg/logger"
	"github.com/psbotkit/scribe/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

const consumerGroup = "chatlog-writers"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewBotMetrics()

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Chatlog Store ---
	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open chatlog store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer db.Close()

	// --- Redis Buffer with File Spool Fallback ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, will proceed in spool-only mode", "error", err)
	}

	lineSpool, err := spool.New(cfg.SpoolPath, cfg.SpoolSegmentSize, cfg.SpoolMaxDiskSize, log)
	if err != nil {
		log.Error("failed to initialize spool", "error", err)
		os.Exit(1)
	}
	defer lineSpool.Close()

	lineBuffer, err := redisbuf.NewLineBuffer(redisClient, log, consumerGroup, cfg.RedisDLQStream, lineSpool, m)
	if err != nil {
		log.Error("failed to initialize line buffer", "error", err)
		os.Exit(1)
	}

	// Redis health check and spool replay loop
	go lineBuffer.StartHealthCheck(ctx, 5*time.Second)

	// --- Use Cases and Command Module ---
	recordUseCase := usecase.NewRecordLineUseCase(lineBuffer, log, m)

	roomDirectory := rooms.NewDirectory(cfg.RoomList(), cfg.SearchLogRank)
	commandModule := command.NewModule(store, roomDirectory, cfg.CommandPrefix, log, m)
	log.Info("command module loaded", "commands", commandModule.Commands())

	// --- HTTP Surface ---
	keys := auth.NewStaticKeyValidator(cfg.APIKey)
	router := api.NewRouter(log, keys, recordUseCase, commandModule, cfg.CommandPrefix, cfg.MaxBodySize, m)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting bot server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("bot server failed", "error", err)
			stop()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("bot server shutdown failed", "error", err)
	}

	log.Info("servers shut down gracefully")
}

// openStore opens the configured chatlog store and ensures its schema.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Chatlogger, *sql.DB, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(db, log)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := sqlite.New(db, log)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db, nil
	}
}
