package command

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// logSearch handles logsearch/searchlogs/sl: it searches a room's logs,
// optionally filtered by user and keyword, and replies with one HTML
// box of per-day collapsible blocks. Days are appended most recent
// first and only while the reply stays within the host message budget;
// anything older is silently truncated.
func (m *Module) logSearch(ctx context.Context, msg *domain.Message) string {
	if len(msg.Args) < 1 {
		msg.Respond(fmt.Sprintf("Usage: ``%slogsearch <room>, [optional user], [optional keyword]``.", m.prefix))
		return statusUsage
	}
	if m.store == nil {
		msg.Respond("There is currently no chatlogger loaded.")
		return statusNoStore
	}

	roomID := ps.ToID(msg.Args[0])
	var userID string
	if len(msg.Args) > 1 {
		userID = ps.ToID(msg.Args[1])
	}
	var keyword string
	if len(msg.Args) > 2 {
		keyword = strings.ToLower(strings.TrimSpace(strings.Join(msg.Args[2:], ",")))
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

	q := domain.SearchQuery{RoomID: roomID, UserID: userID}
	if keyword != "" {
		q.Keywords = []string{keyword}
	}
	results, err := m.store.Search(ctx, q)
	if err != nil {
		m.logger.Error("log search failed", "room", roomID, "error", err)
		msg.Respond("Something went wrong searching the logs.")
		return statusError
	}

	from := "any user"
	if userID != "" {
		from = html.EscapeString(userID)
	}
	summary := fmt.Sprintf("Chatlogs in %s from %s", html.EscapeString(roomID), from)
	if keyword != "" {
		summary += fmt.Sprintf(" matching the keyword <code>%s</code>", html.EscapeString(keyword))
	}

	var buf strings.Builder
	buf.WriteString("<details><summary>" + summary + "</summary>")
	for _, day := range results.DaysDescending() {
		block := m.dayBlock(day, results[day])
		// The assembled reply must never outgrow maxBufLen. Once a
		// day's block no longer fits, that day and everything older
		// is dropped.
		if buf.Len()+len(block)+len(detailsClose) > maxBufLen {
			break
		}
		buf.WriteString(block)
	}
	buf.WriteString(detailsClose)

	msg.RespondHTML(buf.String())
	return statusOK
}

func (m *Module) dayBlock(day string, lines []string) string {
	formatted := make([]string, len(lines))
	for i, raw := range lines {
		formatted[i] = m.store.FormatLine(raw, true)
	}
	plural := "es"
	if len(lines) == 1 {
		plural = ""
	}
	return fmt.Sprintf(
		`<details style="margin-left: 5px;"><summary>%s (%d match%s)</summary><div style="margin-left: 10px;">%s</div></details>`,
		day, len(lines), plural, strings.Join(formatted, "<br />"))
}
