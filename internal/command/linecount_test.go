package command

import (
	"context"
	"strings"
	"testing"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/domain/mocks"
)

func TestLineCount(t *testing.T) {
	ctx := context.Background()

	t.Run("usage on missing arguments", func(t *testing.T) {
		m := newTestModule(&mocks.MockChatlogger{}, devRooms())
		msg, responder := newMessage("%", "annika")

		m.Dispatch(ctx, "linecount", msg)
		want := "Usage: ``@linecount <user>, <room>, [optional number of days]``."
		if len(responder.Replies) != 1 || responder.Replies[0].Body != want {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
	})

	t.Run("summary and per-day breakdown", func(t *testing.T) {
		store := &mocks.MockChatlogger{
			LinecountValue: 8,
			SearchResult: domain.SearchResults{
				"2024-01-01": {"a|1|chat|a|x", "a|2|chat|a|x", "a|3|chat|a|x", "a|4|chat|a|x", "a|5|chat|a|x"},
				"2024-01-02": {"a|6|chat|a|x", "a|7|chat|a|x", "a|8|chat|a|x"},
			},
		}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("%", "Annika", "dev")

		m.Dispatch(ctx, "linecount", msg)
		if len(responder.Replies) != 2 {
			t.Fatalf("expected 2 replies, got %+v", responder.Replies)
		}
		wantText := "The user 'annika' had 8 lines in the room dev in the past 30 days!"
		if responder.Replies[0].Kind != "text" || responder.Replies[0].Body != wantText {
			t.Errorf("unexpected summary reply: %+v", responder.Replies[0])
		}
		html := responder.Replies[1].Body
		if responder.Replies[1].Kind != "html" || !strings.Contains(html, "<summary>Linecounts per day</summary>") {
			t.Fatalf("unexpected breakdown reply: %+v", responder.Replies[1])
		}
		newer := strings.Index(html, "<li>2024-01-02 — <strong>3</strong> lines</li>")
		older := strings.Index(html, "<li>2024-01-01 — <strong>5</strong> lines</li>")
		if newer == -1 || older == -1 || newer > older {
			t.Errorf("per-day entries missing or out of order: %q", html)
		}
	})

	t.Run("days argument", func(t *testing.T) {
		cases := []struct {
			name string
			args []string
			want int
		}{
			{"explicit", []string{"annika", "dev", "7"}, 7},
			{"missing falls back to default", []string{"annika", "dev"}, 30},
			{"non-integer falls back to default", []string{"annika", "dev", "soon"}, 30},
			{"whitespace is tolerated", []string{"annika", "dev", " 14 "}, 14},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{}}
				m := newTestModule(store, devRooms())
				msg, _ := newMessage("%", c.args...)

				m.Dispatch(ctx, "linecount", msg)
				if len(store.LinecountCalls) != 1 {
					t.Fatalf("expected 1 linecount call, got %d", len(store.LinecountCalls))
				}
				if got := store.LinecountCalls[0].Days; got != c.want {
					t.Errorf("days = %d, want %d", got, c.want)
				}
			})
		}
	})

	t.Run("breakdown search is scoped to the user and window", func(t *testing.T) {
		store := &mocks.MockChatlogger{SearchResult: domain.SearchResults{}}
		m := newTestModule(store, devRooms())
		msg, _ := newMessage("%", "annika", "dev", "7")

		m.Dispatch(ctx, "linecount", msg)
		if len(store.SearchCalls) != 1 {
			t.Fatalf("expected 1 search call, got %d", len(store.SearchCalls))
		}
		q := store.SearchCalls[0]
		if q.UserID != "annika" || q.RoomID != "dev" {
			t.Errorf("unexpected query: %+v", q)
		}
		if q.Oldest.IsZero() {
			t.Error("expected the per-day search to carry an oldest cutoff")
		}
	})

	t.Run("permission denied before any query", func(t *testing.T) {
		store := &mocks.MockChatlogger{}
		m := newTestModule(store, devRooms())
		msg, responder := newMessage("", "annika", "dev")

		m.Dispatch(ctx, "linecount", msg)
		if len(responder.Replies) != 1 || responder.Replies[0].Body != "Permission denied." {
			t.Errorf("unexpected replies: %+v", responder.Replies)
		}
		if len(store.LinecountCalls) != 0 || len(store.SearchCalls) != 0 {
			t.Error("expected no store queries after permission denial")
		}
	})
}
