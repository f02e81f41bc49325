// Package sqlite implements the chatlog store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/psbotkit/scribe/internal/chatlog"
	"github.com/psbotkit/scribe/internal/domain"
)

// defaultSearchLimit caps how many rows one search may pull; busy rooms
// log tens of thousands of lines per day.
const defaultSearchLimit = 1000

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	line_id TEXT NOT NULL PRIMARY KEY,
	logged_at INTEGER NOT NULL,
	user_id TEXT,
	user_name TEXT,
	kind TEXT NOT NULL,
	room_id TEXT,
	body TEXT
);
CREATE INDEX IF NOT EXISTS logs_by_time ON logs(logged_at);
CREATE INDEX IF NOT EXISTS logs_by_user_time ON logs(user_id, logged_at);
CREATE INDEX IF NOT EXISTS logs_by_user_room_time ON logs(user_id, room_id, logged_at);
CREATE INDEX IF NOT EXISTS logs_by_kind_user_room_time ON logs(kind, user_id, room_id, logged_at);
`

// Open opens (or creates) the chatlog database at path with WAL journal
// mode enabled for read-heavy workloads.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chatlog directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Store implements domain.Chatlogger on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a SQLite chatlog store.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With("component", "sqlite_store")}
}

// EnsureSchema creates the logs table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply chatlog schema: %w", err)
	}
	return nil
}

// WriteLineBatch persists a batch of chat lines inside one transaction.
// Replays are harmless: conflicting line IDs are ignored.
func (s *Store) WriteLineBatch(ctx context.Context, lines []domain.ChatLine) error {
	if len(lines) == 0 {
		return nil
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op once Commit() succeeds

	stmt, err := txn.PrepareContext(ctx,
		`INSERT OR IGNORE INTO logs (line_id, logged_at, user_id, user_name, kind, room_id, body) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, line := range lines {
		_, err := stmt.ExecContext(ctx, line.ID, line.LoggedAt.Unix(), line.UserID, line.UserName, line.Kind, line.RoomID, line.Body)
		if err != nil {
			return err
		}
	}

	return txn.Commit()
}

// Search returns the lines matching the query, bucketed by day. Rows
// come back newest first; a day's line slice keeps that order.
func (s *Store) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResults, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT logged_at, user_id, user_name, kind, body FROM logs WHERE room_id = ?`)
	args := []any{q.RoomID}

	if q.UserID != "" {
		query.WriteString(` AND user_id = ?`)
		args = append(args, q.UserID)
	}
	for _, keyword := range q.Keywords {
		if keyword == "" {
			continue
		}
		query.WriteString(` AND lower(body) LIKE '%' || ? || '%'`)
		args = append(args, strings.ToLower(keyword))
	}
	query.WriteString(` AND logged_at > ? ORDER BY logged_at DESC LIMIT ?`)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, q.Oldest.Unix(), limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("chatlog search failed: %w", err)
	}
	defer rows.Close()

	results := domain.SearchResults{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		day := domain.DayKey(line.LoggedAt)
		results[day] = append(results[day], chatlog.Encode(line))
	}
	return results, rows.Err()
}

// Linecount returns how many lines the user sent in the room over the
// past number of days.
func (s *Store) Linecount(ctx context.Context, userID, roomID string, days int) (int, error) {
	cutoff := cutoffUnix(days)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(line_id) FROM logs WHERE user_id = ? AND room_id = ? AND logged_at > ?`,
		userID, roomID, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("linecount query failed: %w", err)
	}
	return count, nil
}

// FormatLine renders a raw stored line for display.
func (s *Store) FormatLine(raw string, asHTML bool) string {
	return chatlog.FormatLine(raw, asHTML)
}

func scanLine(rows *sql.Rows) (domain.ChatLine, error) {
	var line domain.ChatLine
	var ts int64
	if err := rows.Scan(&ts, &line.UserID, &line.UserName, &line.Kind, &line.Body); err != nil {
		return domain.ChatLine{}, err
	}
	line.LoggedAt = time.Unix(ts, 0).UTC()
	return line, nil
}

func cutoffUnix(days int) int64 {
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
}
