// Package redis implements the chat line buffer on Redis Streams.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/domain"
)

const lineStreamKey = "chat_lines"

// LineBuffer implements domain.LineBuffer on a Redis Stream, with an
// optional file spool for the stretches when Redis is unreachable.
type LineBuffer struct {
	client       *redis.Client
	logger       *slog.Logger
	spool        domain.Spool
	dlqStreamKey string
	isAvailable  atomic.Bool
	metrics      *metrics.BotMetrics
}

// NewLineBuffer creates a Redis-backed LineBuffer. The spool and
// metrics are optional; pass nil for consumers that never write.
func NewLineBuffer(client *redis.Client, logger *slog.Logger, group, dlqStreamKey string, spool domain.Spool, m *metrics.BotMetrics) (*LineBuffer, error) {
	b := &LineBuffer{
		client:       client,
		logger:       logger.With("component", "redis_line_buffer"),
		spool:        spool,
		dlqStreamKey: dlqStreamKey,
		metrics:      m,
	}
	b.isAvailable.Store(true)

	if err := b.setupConsumerGroup(context.Background(), group); err != nil {
		b.isAvailable.Store(false)
		b.setSpoolGauge(true)
		b.logger.Error("failed to setup consumer group, Redis may be unavailable on startup", "error", err)
	}
	return b, nil
}

// setSpoolGauge reflects whether writes currently land in the spool.
func (b *LineBuffer) setSpoolGauge(active bool) {
	if b.metrics == nil || b.spool == nil {
		return
	}
	if active {
		b.metrics.SpoolActive.Set(1)
	} else {
		b.metrics.SpoolActive.Set(0)
	}
}

func (b *LineBuffer) setupConsumerGroup(ctx context.Context, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, lineStreamKey, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// StartHealthCheck monitors Redis connectivity in a loop and replays
// the spool once the connection recovers. It blocks until ctx is done.
func (b *LineBuffer) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if b.spool == nil {
		b.logger.Info("spool is not configured, skipping health check")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("starting Redis health check and spool replayer")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("stopping Redis health check")
			return
		case <-ticker.C:
			if err := b.client.Ping(ctx).Err(); err != nil {
				if b.isAvailable.CompareAndSwap(true, false) {
					b.setSpoolGauge(true)
					b.logger.Error("Redis connection lost", "error", err)
				}
				continue
			}
			if b.isAvailable.CompareAndSwap(false, true) {
				b.logger.Info("Redis connection recovered")
				if err := b.ReplaySpool(ctx); err != nil {
					b.logger.Error("failed to replay spool after Redis recovery", "error", err)
					b.isAvailable.Store(false)
					continue
				}
				b.setSpoolGauge(false)
			}
		}
	}
}

// ReplaySpool pushes spooled lines back into the stream and truncates
// the spool on success.
func (b *LineBuffer) ReplaySpool(ctx context.Context) error {
	b.logger.Info("replaying spooled chat lines to Redis")
	if err := b.spool.Replay(ctx, func(line domain.ChatLine) error {
		return b.addToStream(ctx, line)
	}); err != nil {
		return fmt.Errorf("spool replay failed: %w", err)
	}
	if err := b.spool.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate spool after replay: %w", err)
	}
	b.logger.Info("spool replay completed")
	return nil
}

// BufferLine adds a chat line to the stream, falling back to the spool
// if Redis is unavailable.
func (b *LineBuffer) BufferLine(ctx context.Context, line domain.ChatLine) error {
	if !b.isAvailable.Load() {
		if b.spool == nil {
			return errors.New("redis is unavailable and no spool is configured")
		}
		return b.spool.Write(ctx, line)
	}

	err := b.addToStream(ctx, line)
	if err == nil {
		return nil
	}
	if !isNetworkError(err) {
		return err
	}
	if b.isAvailable.CompareAndSwap(true, false) {
		b.setSpoolGauge(true)
		b.logger.Error("Redis connection lost during write", "error", err)
	}
	if b.spool == nil {
		return fmt.Errorf("redis became unavailable and no spool is configured: %w", err)
	}
	b.logger.Warn("Redis unavailable, spooling chat line", "line_id", line.ID)
	return b.spool.Write(ctx, line)
}

func (b *LineBuffer) addToStream(ctx context.Context, line domain.ChatLine) error {
	payload, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal chat line: %w", err)
	}
	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: lineStreamKey,
		Values: map[string]interface{}{"payload": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to XADD to chat line stream: %w", err)
	}
	return nil
}

// ReadLineBatch reads a batch of buffered lines for a consumer group.
func (b *LineBuffer) ReadLineBatch(ctx context.Context, group, consumer string, count int) ([]domain.ChatLine, error) {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{lineStreamKey, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from chat line stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	lines := make([]domain.ChatLine, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			b.logger.Warn("invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}
		var line domain.ChatLine
		if err := json.Unmarshal([]byte(payload), &line); err != nil {
			b.logger.Warn("failed to unmarshal chat line from stream, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		line.StreamMessageID = msg.ID
		lines = append(lines, line)
	}
	return lines, nil
}

// AcknowledgeLines acknowledges flushed lines in the stream.
func (b *LineBuffer) AcknowledgeLines(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := b.client.XAck(ctx, lineStreamKey, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK chat lines: %w", err)
	}
	return nil
}

// MoveToDLQ parks lines that repeatedly failed to flush on a separate
// stream for operator inspection.
func (b *LineBuffer) MoveToDLQ(ctx context.Context, lines []domain.ChatLine) error {
	if len(lines) == 0 {
		return nil
	}

	pipe := b.client.Pipeline()
	for _, line := range lines {
		payload, err := json.Marshal(line)
		if err != nil {
			b.logger.Error("failed to marshal chat line for DLQ", "line_id", line.ID, "error", err)
			continue
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: b.dlqStreamKey,
			Values: map[string]interface{}{
				"payload":         payload,
				"original_msg_id": line.StreamMessageID,
				"failed_at":       time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute DLQ pipeline: %w", err)
	}
	b.logger.Warn("moved chat lines to DLQ", "count", len(lines))
	return nil
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
