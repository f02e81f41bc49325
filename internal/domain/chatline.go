package domain

import (
	"sort"
	"time"
)

// Line kinds accepted by the chatlog. Anything else (raw protocol frames,
// battle messages, and so on) is dropped before it reaches a store.
const (
	KindChat = "chat"
	KindPM   = "pm"
)

// ChatLine is one logged chat message or PM.
type ChatLine struct {
	ID              string    `json:"line_id"`
	LoggedAt        time.Time `json:"logged_at"`
	RoomID          string    `json:"room_id,omitempty"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	Kind            string    `json:"kind"`
	Body            string    `json:"body"`
	StreamMessageID string    `json:"-"` // Redis Stream message ID, set when read from the buffer
}

// SearchQuery describes one log search. Zero values mean "no filter";
// a zero Oldest means the whole retention window.
type SearchQuery struct {
	RoomID   string
	UserID   string
	Keywords []string
	Oldest   time.Time
	Limit    int
}

// SearchResults maps a calendar-day key ("2006-01-02", UTC) to the raw
// log lines recorded on that day. Map iteration order is not meaningful;
// callers use DaysDescending before rendering anything ordered.
type SearchResults map[string][]string

// DaysDescending returns the day keys with the most recent day first.
func (r SearchResults) DaysDescending() []string {
	days := make([]string, 0, len(r))
	for day := range r {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// DayKey buckets a timestamp into the calendar-day key used by SearchResults.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
