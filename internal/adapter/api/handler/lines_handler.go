package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/psbotkit/scribe/internal/domain"
)

// LineRecorder is the slice of the record-line use case the handler needs.
type LineRecorder interface {
	Record(ctx context.Context, line *domain.ChatLine) error
}

// LinesHandler accepts chat lines from the bot host, as a single JSON
// object or an NDJSON batch, and hands them to the recording pipeline.
type LinesHandler struct {
	recorder    LineRecorder
	logger      *slog.Logger
	maxBodySize int64
}

// NewLinesHandler creates a new LinesHandler.
func NewLinesHandler(recorder LineRecorder, logger *slog.Logger, maxBodySize int64) *LinesHandler {
	return &LinesHandler{
		recorder:    recorder,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

func (h *LinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	contentType := r.Header.Get("Content-Type")
	switch contentType {
	case "application/json":
		h.handleSingleJSON(w, r)
	case "application/x-ndjson":
		h.handleNDJSON(w, r)
	default:
		http.Error(w, fmt.Sprintf("Unsupported Media Type: %s", contentType), http.StatusUnsupportedMediaType)
	}
}

func (h *LinesHandler) handleSingleJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondBodyError(w, err)
		return
	}

	var line domain.ChatLine
	if err := json.Unmarshal(body, &line); err != nil {
		http.Error(w, "Bad Request: Failed to decode JSON", http.StatusBadRequest)
		return
	}

	if err := h.recorder.Record(r.Context(), &line); err != nil {
		h.logger.Error("failed to record chat line", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *LinesHandler) handleNDJSON(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line domain.ChatLine
		if err := json.Unmarshal(raw, &line); err != nil {
			http.Error(w, "Bad Request: Failed to decode NDJSON line", http.StatusBadRequest)
			return
		}

		if err := h.recorder.Record(r.Context(), &line); err != nil {
			h.logger.Error("failed to record chat line from ndjson batch", "error", err, "line_id", line.ID)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		h.respondBodyError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *LinesHandler) respondBodyError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	h.logger.Error("failed to read request body", "error", err)
	http.Error(w, "Bad Request", http.StatusBadRequest)
}
