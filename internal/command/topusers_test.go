package command

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/domain/mocks"
)

func TestTopUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("usage on missing arguments", func(t *testing.T) {
		m := newTestModule(&mocks.MockChatlogger{}, devRooms())
		msg, responder := newMessage("%")

		m.Dispatch(ctx, "topusers", msg)
		want := "Usage: ``@topusers <room>, [optional number of days]``."
		if len(responder.Replies) != 1 || responder.Replies[0].Body != want {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
	})

	t.Run("acknowledgment precedes the ranking", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{
			"2024-01-01": {"alice|hi", "bob|yo", "alice|hey"},
		}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "topusers", msg)
		if len(responder.Replies) != 2 {
			t.Fatalf("expected 2 replies, got %+v", responder.Replies)
		}
		if responder.Replies[0].Kind != "text" || responder.Replies[0].Body != "Please wait; fetching userstats..." {
			t.Errorf("unexpected acknowledgment: %+v", responder.Replies[0])
		}

		html := responder.Replies[1].Body
		alice := strings.Index(html, "<li><strong>alice</strong> — 2 lines</li>")
		bob := strings.Index(html, "<li><strong>bob</strong> — 1 lines</li>")
		if alice == -1 || bob == -1 || alice > bob {
			t.Errorf("ranking missing or out of order: %q", html)
		}
		if !strings.Contains(html, "<summary>Top 50 users in the room dev in the past 30 days</summary>") {
			t.Errorf("unexpected header: %q", html)
		}
	})

	t.Run("lines without a user id are skipped", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{
			"2024-01-01": {"|uhtml|raw frame", "no pipes here", "alice|hi"},
		}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "topusers", msg)
		html := responder.Replies[1].Body
		if got := strings.Count(html, "<li>"); got != 1 {
			t.Errorf("expected 1 ranked entry, got %d: %q", got, html)
		}
	})

	t.Run("at most 50 users, counts non-increasing", func(t *testing.T) {
		lines := []string{}
		for i := 1; i <= 60; i++ {
			for n := 0; n < i; n++ {
				lines = append(lines, fmt.Sprintf("user%02d|line %d", i, n))
			}
		}
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{"2024-01-01": lines}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev")

		m.Dispatch(ctx, "topusers", msg)
		html := responder.Replies[1].Body
		if got := strings.Count(html, "<li>"); got != 50 {
			t.Errorf("expected 50 ranked entries, got %d", got)
		}
		first := strings.Index(html, "<li><strong>user60</strong> — 60 lines</li>")
		last := strings.Index(html, "<li><strong>user11</strong> — 11 lines</li>")
		if first == -1 || last == -1 || first > last {
			t.Errorf("ranking boundaries wrong: first=%d last=%d", first, last)
		}
		if strings.Contains(html, "user10") {
			t.Error("users beyond the top 50 should be dropped")
		}
	})

	t.Run("days argument falls back to default", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{}}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "dev", "eventually")

		m.Dispatch(ctx, "topusers", msg)
		if !strings.Contains(responder.Replies[1].Body, "in the past 30 days") {
			t.Errorf("expected default window, got %q", responder.Replies[1].Body)
		}
	})

	t.Run("permission denied before any query", func(t *testing.T) {
		store := &mocks.MockChatlogger{}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("", "dev")

		m.Dispatch(ctx, "topusers", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Body != "Permission denied." {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
		if len(store.SearchCalls) != 0 {
			t.Error("expected no store queries after permission denial")
		}
	})
}

func TestCommands(t *testing.T) {
	m := newTestModule(nil, devRooms())
	got := m.Commands()
	want := []string{"linecount", "logsearch", "searchlogs", "sl", "topusers"}
	if len(got) != len(want) {
		t.Fatalf("Commands() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Commands() = %v, want %v", got, want)
		}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	m := newTestModule(nil, devRooms())
	msg, responder := newMessage("%", "dev")
	if m.Dispatch(context.Background(), "frolic", msg) {
		t.Error("expected unknown command to be unhandled")
	}
	if len(responder.Replies) != 0 {
		t.Errorf("unexpected replies: %+v", responder.Replies)
	}
}
