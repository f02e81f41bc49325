// Package chatlog implements the raw stored-line format shared by all
// chatlog store backends and its display rendering.
//
// A raw line is "userid|unixtime|kind|senderName|body". The body may
// itself contain pipes, so it is always the final field.
package chatlog

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

const rawFieldCount = 5

// Encode renders a chat line in the raw stored format.
func Encode(line domain.ChatLine) string {
	return strings.Join([]string{
		line.UserID,
		strconv.FormatInt(line.LoggedAt.Unix(), 10),
		line.Kind,
		line.UserName,
		line.Body,
	}, "|")
}

// UserID extracts the leading user ID field from a raw line. It returns
// "" for malformed lines, which callers are expected to skip.
func UserID(raw string) string {
	if i := strings.IndexByte(raw, '|'); i >= 0 {
		return raw[:i]
	}
	return ""
}

// FormatLine renders a raw line for display. HTML output follows the
// host's chatlog convention: a small timestamp, the sender in bold, and
// rank sigils split out in a <small> tag.
func FormatLine(raw string, asHTML bool) string {
	parts := strings.SplitN(raw, "|", rawFieldCount)
	if len(parts) < rawFieldCount {
		if asHTML {
			return html.EscapeString(raw)
		}
		return raw
	}

	name, body := parts[3], parts[4]
	stamp := "??:??:??"
	if secs, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
		stamp = time.Unix(secs, 0).UTC().Format("15:04:05")
	}

	if !asHTML {
		return fmt.Sprintf("[%s] %s: %s", stamp, name, body)
	}

	user := "<b>" + html.EscapeString(name) + "</b>"
	if len(name) > 1 && ps.IsRank(name[:1]) {
		user = "<small>" + html.EscapeString(name[:1]) + "</small><b>" + html.EscapeString(name[1:]) + "</b>"
	}
	return fmt.Sprintf("<small>[%s] </small>%s: %s", stamp, user, html.EscapeString(body))
}
