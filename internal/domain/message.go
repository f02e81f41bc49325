package domain

import "github.com/psbotkit/scribe/internal/ps"

// Room is a chat channel the bot is present in. Permissions maps a
// permission name to the minimum rank sigil required to hold it in
// this room.
type Room struct {
	ID          string
	Permissions map[string]string
}

// PermSearchLog gates access to the chatlog of a room.
const PermSearchLog = "searchlog"

// Sender identifies the user who invoked a command. Rank is the rank
// sigil the host reported for them in the relevant room ("" for a
// regular user).
type Sender struct {
	ID   string
	Name string
	Rank string
}

// Can reports whether the sender holds the named permission in the room.
// Unknown permissions are denied.
func (s Sender) Can(permission string, room *Room) bool {
	if room == nil {
		return false
	}
	required, ok := room.Permissions[permission]
	if !ok {
		return false
	}
	return ps.RankAtLeast(s.Rank, required)
}

// Responder emits replies for one command invocation. The host guarantees
// delivery and imposes its own size ceiling on HTML replies; callers are
// responsible for staying under it.
type Responder interface {
	// Respond sends a plain-text reply.
	Respond(text string)
	// RespondHTML sends a rich reply.
	RespondHTML(html string)
}

// Message is one command invocation from the host chat client.
type Message struct {
	Sender    Sender
	RoomID    string   // room the command was typed in, "" for PMs
	Args      []string // raw comma-split segments after the command name
	Responder Responder
}

// Respond sends a plain-text reply to the invoking user.
func (m *Message) Respond(text string) { m.Responder.Respond(text) }

// RespondHTML sends a rich reply to the invoking user.
func (m *Message) RespondHTML(html string) { m.Responder.RespondHTML(html) }
