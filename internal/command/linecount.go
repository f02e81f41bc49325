package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// lineCount reports how many lines a user sent in a room over a
// lookback window, as a plain-text total followed by an HTML per-day
// breakdown. A missing or unparsable days argument falls back to the
// default window instead of failing.
func (m *Module) lineCount(ctx context.Context, msg *domain.Message) string {
	if len(msg.Args) < 2 {
		msg.Respond(fmt.Sprintf("Usage: ``%slinecount <user>, <room>, [optional number of days]``.", m.prefix))
		return statusUsage
	}

	userID := ps.ToID(msg.Args[0])
	roomID := ps.ToID(msg.Args[1])
	days := lookbackDays(msg.Args, 2)

	if m.store == nil {
		msg.Respond("There is currently no chatlogger loaded.")
		return statusNoStore
	}
	room := m.rooms.GetRoom(roomID)
	if room == nil {
		msg.Respond("Invalid room: " + roomID)
		return statusBadRoom
	}
	if !msg.Sender.Can(domain.PermSearchLog, room) {
		msg.Respond("Permission denied.")
		return statusDenied
	}

	count, err := m.store.Linecount(ctx, userID, roomID, days)
	if err != nil {
		m.logger.Error("linecount query failed", "user", userID, "room", roomID, "error", err)
		msg.Respond("Something went wrong counting the lines.")
		return statusError
	}
	msg.Respond(fmt.Sprintf("The user '%s' had %d lines in the room %s in the past %d days!", userID, count, roomID, days))

	results, err := m.store.Search(ctx, domain.SearchQuery{
		RoomID: roomID,
		UserID: userID,
		Oldest: time.Now().Add(-time.Duration(days) * 24 * time.Hour),
	})
	if err != nil {
		m.logger.Error("per-day linecount search failed", "user", userID, "room", roomID, "error", err)
		msg.Respond("Something went wrong fetching the per-day counts.")
		return statusError
	}

	var items strings.Builder
	for _, day := range results.DaysDescending() {
		fmt.Fprintf(&items, "<li>%s — <strong>%d</strong> lines</li>", day, len(results[day]))
	}
	msg.RespondHTML("<details><summary>Linecounts per day</summary><ul>" + items.String() + "</ul></details>")
	return statusOK
}

// lookbackDays parses the optional days argument at index i, falling
// back to the default window on any missing or non-integer value.
func lookbackDays(args []string, i int) int {
	if len(args) <= i {
		return defaultLookbackDays
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[i]))
	if err != nil {
		return defaultLookbackDays
	}
	return n
}
