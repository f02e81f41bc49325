package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/domain/mocks"
)

func newTestModule(store domain.Chatlogger, rooms domain.RoomDirectory) *Module {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewModule(store, rooms, "@", logger, nil)
}

func devRooms() *mocks.MockRoomDirectory {
	return &mocks.MockRoomDirectory{Rooms: map[string]*domain.Room{
		"dev": {ID: "dev", Permissions: map[string]string{domain.PermSearchLog: "%"}},
	}}
}

func newMessage(rank string, args ...string) (*domain.Message, *mocks.MockResponder) {
	responder := &mocks.MockResponder{}
	msg := &domain.Message{
		Sender:    domain.Sender{ID: "tester", Name: "Tester", Rank: rank},
		RoomID:    "dev",
		Args:      args,
		Responder: responder,
	}
	return msg, responder
}

func TestLogSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("usage on missing arguments", func(t *testing.T) {
		m := newTestModule(&mocks.MockChatlogger{}, devRooms())
		msg, responder := newMessage("%")

		if !m.Dispatch(ctx, "logsearch", msg) {
			t.Fatal("expected logsearch to be dispatched")
		}
		want := "Usage: ``@logsearch <room>, [optional user], [optional keyword]``."
		if len(responder.Replies) != 1 || responder.Replies[0].Body != want {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
	})

	t.Run("no chatlogger loaded", func(t *testing.T) {
		m := newTestModule(nil, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "logsearch", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Body != "There is currently no chatlogger loaded." {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
	})

	t.Run("invalid room", func(t *testing.T) {
		m := newTestModule(&mocks.MockChatlogger{}, devRooms())
		msg, responder := newMessage("%", "lobby")

		m.Dispatch(ctx, "logsearch", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Body != "Invalid room: lobby" {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
	})

	t.Run("permission denied before any query", func(t *testing.T) {
		store := &mocks.MockChatlogger{}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("", "dev")

		m.Dispatch(ctx, "logsearch", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Body != "Permission denied." {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
		if len(store.SearchCalls) != 0 {
			t.Errorf("expected no store queries, got %d", len(store.SearchCalls))
		}
	})

	t.Run("arguments are canonicalized into the query", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{}}
		m := newTestModule(store, devRooms())
		msg, _ := newMessage("%", "Dev", "@Annika", "Hello", " World")

		m.Dispatch(ctx, "sl", msg)
		if len(store.SearchCalls) != 1 {
			t.Fatalf("expected 1 search call, got %d", len(store.SearchCalls))
		}
		q := store.SearchCalls[0]
		if q.RoomID != "dev" || q.UserID != "annika" {
			t.Errorf("unexpected query ids: %+v", q)
		}
		if len(q.Keywords) != 1 || q.Keywords[0] != "hello, world" {
			t.Errorf("unexpected keywords: %v", q.Keywords)
		}
	})

	t.Run("days are rendered most recent first", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{
			"2024-01-01": {"alice|1|chat|alice|old one", "alice|2|chat|alice|old two"},
			"2024-01-02": {"alice|3|chat|alice|new one"},
		}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "logsearch", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Kind != "html" {
			t.Fatalf("unexpected replies: %+v", responder.Replies)
		}
		html := responder.Replies[0].Body
		if !strings.Contains(html, "Chatlogs in dev from any user") {
			t.Errorf("missing summary: %q", html)
		}
		newer := strings.Index(html, "2024-01-02 (1 match)")
		older := strings.Index(html, "2024-01-01 (2 matches)")
		if newer == -1 || older == -1 || newer > older {
			t.Errorf("day blocks missing or out of order: newer=%d older=%d", newer, older)
		}
	})

	t.Run("keyword appears in the summary", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev", "", "hello")

		m.Dispatch(ctx, "logsearch", msg)
		html := responder.Replies[0].Body
		if !strings.Contains(html, "matching the keyword <code>hello</code>") {
			t.Errorf("missing keyword summary: %q", html)
		}
	})

	t.Run("output never exceeds the buffer budget", func(t *testing.T) {
		results := domain.SearchResults{}
		for i := 1; i <= 30; i++ {
			day := fmt.Sprintf("2024-01-%02d", i)
			results[day] = []string{strings.Repeat("x", 8000)}
		}
		store := &mocks.MockChatlogger{SearchResult: results}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "logsearch", msg)
		html := responder.Replies[0].Body
		if len(html) > maxBufLen {
			t.Errorf("reply size %d exceeds budget %d", len(html), maxBufLen)
		}
		if !strings.Contains(html, "2024-01-30") {
			t.Error("most recent day was truncated")
		}
		if strings.Contains(html, "2024-01-01 ") {
			t.Error("oldest day should have been truncated first")
		}
	})

	t.Run("aliases dispatch to the same handler", func(t *testing.T) {
		for _, alias := range []string{"logsearch", "searchlogs", "sl"} {
			m := newTestModule(nil, devRooms())
			msg, responder := newMessage("%", "dev")
			if !m.Dispatch(ctx, alias, msg) {
				t.Errorf("alias %q not dispatched", alias)
				continue
			}
			if len(responder.Replies) != 1 || responder.Replies[0].Body != "There is currently no chatlogger loaded." {
				t.Errorf("alias %q: unexpected replies %+v", alias, responder.Replies)
			}
		}
	})
}
