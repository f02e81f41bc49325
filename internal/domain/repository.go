package domain

import "context"

// Chatlogger is the log-search collaborator: a store that persists chat
// lines and answers search and linecount queries over them.
// This abstracts away the specific backends (SQLite, PostgreSQL).
type Chatlogger interface {
	// Search returns the lines matching the query, bucketed by day.
	Search(ctx context.Context, q SearchQuery) (SearchResults, error)

	// Linecount returns how many lines the user sent in the room over
	// the past number of days.
	Linecount(ctx context.Context, userID, roomID string, days int) (int, error)

	// WriteLineBatch persists a batch of chat lines. Writes are
	// idempotent on line ID.
	WriteLineBatch(ctx context.Context, lines []ChatLine) error

	// FormatLine renders a raw stored line for display, as HTML or
	// plain text.
	FormatLine(raw string, asHTML bool) string
}

// LineBuffer is the durable buffer incoming chat lines pass through
// before being flushed to a Chatlogger sink (e.g. Redis Streams).
type LineBuffer interface {
	// BufferLine adds a single chat line to the buffer.
	BufferLine(ctx context.Context, line ChatLine) error

	// ReadLineBatch reads a batch of buffered lines for a specific consumer.
	ReadLineBatch(ctx context.Context, group, consumer string, count int) ([]ChatLine, error)

	// AcknowledgeLines marks buffered lines as flushed to the sink.
	AcknowledgeLines(ctx context.Context, group string, messageIDs ...string) error

	// MoveToDLQ parks lines that repeatedly failed to flush.
	MoveToDLQ(ctx context.Context, lines []ChatLine) error
}

// Spool is the file-backed fallback used when the line buffer is
// unreachable. Spooled lines are replayed into the buffer once it
// recovers.
type Spool interface {
	Write(ctx context.Context, line ChatLine) error
	Replay(ctx context.Context, handler func(line ChatLine) error) error
	Truncate(ctx context.Context) error
}

// RoomDirectory resolves room IDs to the rooms the bot knows about.
type RoomDirectory interface {
	// GetRoom returns the room, or nil if the ID is unknown.
	GetRoom(id string) *Room
}

// APIKeyValidator checks host credentials on the HTTP surface.
type APIKeyValidator interface {
	IsValid(ctx context.Context, key string) (bool, error)
}
