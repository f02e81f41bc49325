package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	redisbuf "github.com/psbotkit/scribe/internal/adapter/buffer/redis"
	"github.com/psbotkit/scribe/internal/adapter/store/postgres"
	"github.com/psbotkit/scribe/internal/adapter/store/sqlite"
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/pkg/config"
	"github.com/psbotkit/scribe/internal/pkg/logger"
	"github.com/psbotkit/scribe/internal/usecase"
)

const (
	consumerGroup = "chatlog-writers"
	flushInterval = 1 * time.Second
	writeRetries  = 3
	retryBackoff  = 500 * time.Millisecond
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting log worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping log worker...")
		cancel()
	}()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Open the chatlog sink
	sink, db, err := openSink(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open chatlog store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to chatlog store", "driver", cfg.StoreDriver)

	// A unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "logworker-default"
	}

	lineBuffer, err := redisbuf.NewLineBuffer(redisClient, log, consumerGroup, cfg.RedisDLQStream, nil, nil)
	if err != nil {
		log.Error("failed to create line buffer", "error", err)
		os.Exit(1)
	}

	flushUseCase := usecase.NewFlushLinesUseCase(lineBuffer, sink, log, consumerGroup, consumerName, writeRetries, retryBackoff)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	log.Info("log worker started, flushing chat lines...", "group", consumerGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := flushUseCase.FlushBatch(ctx); err != nil {
				log.Error("error flushing batch", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down flush loop")
			break Loop
		}
	}

	log.Info("log worker shut down gracefully")
}

// openSink opens the configured chatlog store and ensures its schema.
func openSink(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Chatlogger, *sql.DB, error) {
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
