// Package postgres implements the chatlog store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/psbotkit/scribe/internal/chatlog"
	"github.com/psbotkit/scribe/internal/domain"
)

const defaultSearchLimit = 1000

// Store implements domain.Chatlogger on PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a PostgreSQL chatlog store.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With("component", "postgres_store")}
}

// EnsureSchema creates the logs table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS logs (
	line_id TEXT NOT NULL PRIMARY KEY,
	logged_at BIGINT NOT NULL,
	user_id TEXT,
	user_name TEXT,
	kind TEXT NOT NULL,
	room_id TEXT,
	body TEXT
);
CREATE INDEX IF NOT EXISTS logs_by_time ON logs(logged_at);
CREATE INDEX IF NOT EXISTS logs_by_user_room_time ON logs(user_id, room_id, logged_at);
CREATE INDEX IF NOT EXISTS logs_by_room_time ON logs(room_id, logged_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply chatlog schema: %w", err)
	}
	return nil
}

// WriteLineBatch writes a batch of chat lines using the COPY protocol.
// The batch is staged into a temp table and merged so that flush retries
// after a partial failure stay idempotent on line_id.
func (s *Store) WriteLineBatch(ctx context.Context, lines []domain.ChatLine) error {
	if len(lines) == 0 {
		return nil
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op once Commit() succeeds

	const tempTableName = "logs_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE logs INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return err
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName, "line_id", "logged_at", "user_id", "user_name", "kind", "room_id", "body"))
	if err != nil {
		return err
	}

	for _, line := range lines {
		_, err = stmt.ExecContext(ctx, line.ID, line.LoggedAt.Unix(), line.UserID, line.UserName, line.Kind, line.RoomID, line.Body)
		if err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	_, err = txn.ExecContext(ctx, `
		INSERT INTO logs (line_id, logged_at, user_id, user_name, kind, room_id, body)
		SELECT line_id, logged_at, user_id, user_name, kind, room_id, body FROM `+tempTableName+`
		ON CONFLICT (line_id) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return txn.Commit()
}

// Search returns the lines matching the query, bucketed by day. Rows
// come back newest first; a day's line slice keeps that order.
func (s *Store) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResults, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT logged_at, user_id, user_name, kind, body FROM logs WHERE room_id = $1`)
	args := []any{q.RoomID}

	if q.UserID != "" {
		args = append(args, q.UserID)
		fmt.Fprintf(&query, ` AND user_id = $%d`, len(args))
	}
	for _, keyword := range q.Keywords {
		if keyword == "" {
			continue
		}
		args = append(args, keyword)
		fmt.Fprintf(&query, ` AND body ILIKE '%%' || $%d || '%%'`, len(args))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, q.Oldest.Unix())
	fmt.Fprintf(&query, ` AND logged_at > $%d`, len(args))
	args = append(args, limit)
	fmt.Fprintf(&query, ` ORDER BY logged_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("chatlog search failed: %w", err)
	}
	defer rows.Close()

	results := domain.SearchResults{}
	for rows.Next() {
		var line domain.ChatLine
		var ts int64
		if err := rows.Scan(&ts, &line.UserID, &line.UserName, &line.Kind, &line.Body); err != nil {
			return nil, err
		}
		line.LoggedAt = time.Unix(ts, 0).UTC()
		day := domain.DayKey(line.LoggedAt)
		results[day] = append(results[day], chatlog.Encode(line))
	}
	return results, rows.Err()
}

// Linecount returns how many lines the user sent in the room over the
// past number of days.
func (s *Store) Linecount(ctx context.Context, userID, roomID string, days int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(line_id) FROM logs WHERE user_id = $1 AND room_id = $2 AND logged_at > $3`,
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
