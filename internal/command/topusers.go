package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/psbotkit/scribe/internal/chatlog"
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// topUsers ranks the most active users of a room over a lookback
// window. The scan can be slow on busy rooms, so an acknowledgment is
// sent before the store is queried.
func (m *Module) topUsers(ctx context.Context, msg *domain.Message) string {
	if len(msg.Args) < 1 {
		msg.Respond(fmt.Sprintf("Usage: ``%stopusers <room>, [optional number of days]``.", m.prefix))
		return statusUsage
	}

	roomID := ps.ToID(msg.Args[0])
	days := lookbackDays(msg.Args, 1)

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

	msg.Respond("Please wait; fetching userstats...")

	results, err := m.store.Search(ctx, domain.SearchQuery{
		RoomID: roomID,
		Oldest: time.Now().Add(-time.Duration(days) * 24 * time.Hour),
	})
	if err != nil {
		m.logger.Error("topusers search failed", "room", roomID, "error", err)
		msg.Respond("Something went wrong fetching the userstats.")
		return statusError
	}

	// Tally lines per user ID, remembering first-seen order so that the
	// stable sort breaks count ties deterministically.
	counts := make(map[string]int)
	var users []string
	for _, day := range results.DaysDescending() {
		for _, raw := range results[day] {
			id := chatlog.UserID(raw)
			if id == "" {
				continue
			}
			if _, seen := counts[id]; !seen {
				users = append(users, id)
			}
			counts[id]++
		}
	}
	sort.SliceStable(users, func(i, j int) bool { return counts[users[i]] > counts[users[j]] })
	if len(users) > topUserCount {
		users = users[:topUserCount]
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "<details><summary>Top %d users in the room %s in the past %d days</summary><ul>", topUserCount, roomID, days)
	for _, id := range users {
		fmt.Fprintf(&buf, "<li><strong>%s</strong> — %d lines</li>", id, counts[id])
	}
	buf.WriteString("</ul></details>")

	msg.RespondHTML(buf.String())
	return statusOK
}
