package api

import (
	"log/slog"
	"net/http"

	"github.com/psbotkit/scribe/internal/adapter/api/handler"
	"github.com/psbotkit/scribe/internal/adapter/api/middleware"
	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/domain"
)

// NewRouter creates and configures the HTTP router the bot host talks to.
func NewRouter(
	logger *slog.Logger,
	keys domain.APIKeyValidator,
	recorder handler.LineRecorder,
	dispatcher handler.Dispatcher,
	commandPrefix string,
	maxBodySize int64,
	m *metrics.BotMetrics,
) http.Handler {
	mux := http.NewServeMux()

	linesHandler := handler.NewLinesHandler(recorder, logger, maxBodySize)
	commandHandler := handler.NewCommandHandler(dispatcher, commandPrefix, logger, m)

	authMiddleware := middleware.Auth(keys, logger)
	loggingMiddleware := middleware.Logging(logger)

	mux.Handle("POST /lines", authMiddleware(linesHandler))
	mux.Handle("POST /commands", authMiddleware(commandHandler))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return loggingMiddleware(mux)
}
