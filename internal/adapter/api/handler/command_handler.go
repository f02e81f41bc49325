package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// Dispatcher is the slice of the command module the handler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, msg *domain.Message) bool
}

// commandRequest is one command invocation relayed by the bot host.
type commandRequest struct {
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Rank    string `json:"rank"`
	Message string `json:"message"`
}

// commandReply is one reply emitted while handling the command, in
// emission order.
type commandReply struct {
	Kind string `json:"kind"` // "text" or "html"
	Body string `json:"body"`
}

type commandResponse struct {
	Handled bool           `json:"handled"`
	Replies []commandReply `json:"replies"`
}

// replyCollector implements domain.Responder by recording replies so
// they can be returned to the host in one response body.
type replyCollector struct {
	replies []commandReply
}

func (c *replyCollector) Respond(text string) {
	c.replies = append(c.replies, commandReply{Kind: "text", Body: text})
}

func (c *replyCollector) RespondHTML(html string) {
	c.replies = append(c.replies, commandReply{Kind: "html", Body: html})
}

// CommandHandler turns relayed chat messages into command dispatches
// and returns the replies the host should deliver.
type CommandHandler struct {
	dispatcher Dispatcher
	prefix     string
	logger     *slog.Logger
	metrics    *metrics.BotMetrics
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(dispatcher Dispatcher, prefix string, logger *slog.Logger, m *metrics.BotMetrics) *CommandHandler {
	return &CommandHandler{
		dispatcher: dispatcher,
		prefix:     prefix,
		logger:     logger,
		metrics:    m,
	}
}

func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Bad Request: Failed to decode JSON", http.StatusBadRequest)
		return
	}

	name, args, ok := h.parseCommand(req.Message)
	if !ok {
		h.respondJSON(w, commandResponse{Handled: false, Replies: []commandReply{}})
		return
	}

	collector := &replyCollector{}
	msg := &domain.Message{
		Sender: domain.Sender{
			ID:   ps.ToID(req.Sender),
			Name: req.Sender,
			Rank: req.Rank,
		},
		RoomID:    ps.ToID(req.Room),
		Args:      args,
		Responder: collector,
	}

	handled := h.dispatcher.Dispatch(r.Context(), name, msg)
	if !handled {
		h.logger.Debug("unrecognized command", "command", name)
	}

	replies := collector.replies
	if replies == nil {
		replies = []commandReply{}
	}
	if h.metrics != nil {
		for _, reply := range replies {
			h.metrics.ResponseBytesTotal.Add(float64(len(reply.Body)))
		}
	}

	h.respondJSON(w, commandResponse{Handled: handled, Replies: replies})
}

// parseCommand strips the command prefix and splits the remainder into
// the command name and its raw comma-separated argument segments.
func (h *CommandHandler) parseCommand(message string) (string, []string, bool) {
	if !strings.HasPrefix(message, h.prefix) {
		return "", nil, false
	}
	rest := strings.TrimPrefix(message, h.prefix)

	name, argText, _ := strings.Cut(rest, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil, false
	}

	var args []string
	if strings.TrimSpace(argText) != "" {
		args = strings.Split(argText, ",")
	}
	return name, args, true
}

func (h *CommandHandler) respondJSON(w http.ResponseWriter, resp commandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode command response", "error", err)
	}
}
