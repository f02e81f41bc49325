// Package command implements the chat-command handlers for searching
// chatlogs: logsearch (with its searchlogs/sl aliases), linecount and
// topusers. Handlers parse comma-delimited arguments, resolve rooms,
// check permissions, query the chatlog store and emit formatted replies.
package command

import (
	"context"
	"log/slog"
	"sort"

	"github.com/psbotkit/scribe/internal/adapter/metrics"
	"github.com/psbotkit/scribe/internal/domain"
)

const (
	// maxHostMessageSize is the hard ceiling on a single message to the
	// chat server; maxUserNameLen is the longest possible recipient name
	// in a /pminfobox command.
	maxHostMessageSize = 102400
	maxUserNameLen     = 19
	pmInfoboxCommand   = "/pminfobox ,"
	detailsClose       = "</details>"

	// maxBufLen is the budget for an assembled HTML reply, leaving room
	// for the pminfobox framing and the recipient name.
	maxBufLen = maxHostMessageSize - maxUserNameLen - len(pmInfoboxCommand) - len(detailsClose)

	topUserCount        = 50
	defaultLookbackDays = 30
)

// Handler outcome labels, recorded per command on the metrics counter.
const (
	statusOK      = "ok"
	statusUsage   = "usage"
	statusNoStore = "no_store"
	statusBadRoom = "bad_room"
	statusDenied  = "denied"
	statusError   = "error"
)

type handlerFunc func(ctx context.Context, msg *domain.Message) string

// Module is the read-only dispatch table mapping command names to
// handlers. It is constructed once and shared across invocations; all
// working state lives inside a single handler call.
type Module struct {
	store    domain.Chatlogger // nil when no chatlogger is configured
	rooms    domain.RoomDirectory
	prefix   string
	logger   *slog.Logger
	metrics  *metrics.BotMetrics
	commands map[string]handlerFunc
}

// NewModule builds the dispatch table. store may be nil; affected
// commands then reply that no chatlogger is loaded.
func NewModule(store domain.Chatlogger, rooms domain.RoomDirectory, prefix string, logger *slog.Logger, m *metrics.BotMetrics) *Module {
	mod := &Module{
		store:   store,
		rooms:   rooms,
		prefix:  prefix,
		logger:  logger.With("component", "command_module"),
		metrics: m,
	}
	mod.commands = map[string]handlerFunc{
		"logsearch":  mod.logSearch,
		"searchlogs": mod.logSearch,
		"sl":         mod.logSearch,
		"linecount":  mod.lineCount,
		"topusers":   mod.topUsers,
	}
	return mod
}

// Commands returns the recognized command names, aliases included,
// sorted for stable help output.
func (m *Module) Commands() []string {
	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered for name and reports whether the
// command was recognized.
func (m *Module) Dispatch(ctx context.Context, name string, msg *domain.Message) bool {
	h, ok := m.commands[name]
	if !ok {
		return false
	}
	status := h(ctx, msg)
	if m.metrics != nil {
		m.metrics.CommandsTotal.WithLabelValues(name, status).Inc()
	}
	return true
}
