package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/psbotkit/scribe/internal/domain"
)

// FlushLinesUseCase orchestrates draining buffered chat lines into the
// chatlog store: read a batch, write it with bounded retries, ack it.
// Batches that exhaust their retries go to the DLQ so one poison batch
// cannot wedge the consumer.
type FlushLinesUseCase struct {
	buffer     domain.LineBuffer
	sink       domain.Chatlogger
	logger     *slog.Logger
	group      string
	consumer   string
	retryCount int
	backoff    time.Duration
}

const defaultFlushBatchSize = 1000

// NewFlushLinesUseCase creates a new use case for flushing buffered lines.
func NewFlushLinesUseCase(buffer domain.LineBuffer, sink domain.Chatlogger, logger *slog.Logger, group, consumer string, retryCount int, backoff time.Duration) *FlushLinesUseCase {
	return &FlushLinesUseCase{
		buffer:     buffer,
		sink:       sink,
		logger:     logger,
		group:      group,
		consumer:   consumer,
		retryCount: retryCount,
		backoff:    backoff,
	}
}

// FlushBatch drains one batch from the buffer into the store. It
// returns how many lines were flushed (or parked in the DLQ).
func (uc *FlushLinesUseCase) FlushBatch(ctx context.Context) (int, error) {
	lines, err := uc.buffer.ReadLineBatch(ctx, uc.group, uc.consumer, defaultFlushBatchSize)
	if err != nil {
		uc.logger.Error("failed to read chat line batch from buffer", "error", err)
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}
	uc.logger.Debug("read chat line batch from buffer", "count", len(lines))

	writeErr := uc.writeWithRetry(ctx, lines)
	if writeErr != nil {
		uc.logger.Error("failed to write chat line batch after retries, parking in DLQ", "error", writeErr)
		if dlqErr := uc.buffer.MoveToDLQ(ctx, lines); dlqErr != nil {
			uc.logger.Error("failed to move chat lines to DLQ", "error", dlqErr)
			return 0, dlqErr
		}
	}

	// Acknowledge in both cases: flushed lines are in the store, failed
	// ones are preserved in the DLQ.
	messageIDs := make([]string, len(lines))
	for i, line := range lines {
		messageIDs[i] = line.StreamMessageID
	}
	if err := uc.buffer.AcknowledgeLines(ctx, uc.group, messageIDs...); err != nil {
		// The lines are stored but not acked; they will be re-read, and
		// the store write is idempotent on line ID.
		uc.logger.Error("failed to acknowledge chat lines in buffer", "error", err)
		return 0, err
	}

	if writeErr != nil {
		return 0, writeErr
	}
	uc.logger.Info("flushed chat line batch", "count", len(lines))
	return len(lines), nil
}

func (uc *FlushLinesUseCase) writeWithRetry(ctx context.Context, lines []domain.ChatLine) error {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		err := uc.sink.WriteLineBatch(ctx, lines)
		if err == nil {
			return nil
		}
		lastErr = err
		uc.logger.Warn("failed to write chat line batch, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(uc.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
