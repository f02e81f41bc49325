package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// RecordLineUseCase handles the business logic for recording one chat
// line: filter, enrich, buffer.
type RecordLineUseCase struct {
	buffer  domain.LineBuffer
	logger  *slog.Logger
	metrics *metrics.BotMetrics
}

// NewRecordLineUseCase creates a new RecordLineUseCase.
func NewRecordLineUseCase(buffer domain.LineBuffer, logger *slog.Logger, m *metrics.BotMetrics) *RecordLineUseCase {
	return &RecordLineUseCase{buffer: buffer, logger: logger, metrics: m}
}

// Record validates, enriches and buffers a chat line. Lines that are
// neither chat nor PM are dropped without error; the chatlog only keeps
// conversation.
func (uc *RecordLineUseCase) Record(ctx context.Context, line *domain.ChatLine) error {
	if line.Kind != domain.KindChat && line.Kind != domain.KindPM {
		uc.count("dropped")
		return nil
	}

	if line.LoggedAt.IsZero() {
		line.LoggedAt = time.Now().UTC()
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	if line.UserID == "" {
		line.UserID = ps.ToID(line.UserName)
	}
	line.RoomID = ps.ToID(line.RoomID)

	if err := uc.buffer.BufferLine(ctx, *line); err != nil {
		uc.logger.Error("failed to buffer chat line", "error", err, "line_id", line.ID)
		uc.count("error")
		return err
	}
	uc.count("buffered")
	return nil
}

func (uc *RecordLineUseCase) count(status string) {
	if uc.metrics != nil {
		uc.metrics.LinesTotal.WithLabelValues(status).Inc()
	}
}
