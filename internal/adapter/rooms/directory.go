// Package rooms provides the config-backed room directory.
package rooms

import (
	"github.com/psbotkit/scribe/internal/domain"
	"github.com/psbotkit/scribe/internal/ps"
)

// Directory implements domain.RoomDirectory over the fixed room list
// from configuration. Every room gets the same permission table; per
// room overrides have not been needed so far.
type Directory struct {
	rooms map[string]*domain.Room
}

// NewDirectory builds a directory for the given room names. searchlogRank
// is the minimum rank sigil required to search a room's chatlogs.
func NewDirectory(roomNames []string, searchlogRank string) *Directory {
	d := &Directory{rooms: make(map[string]*domain.Room, len(roomNames))}
	for _, name := range roomNames {
		id := ps.ToID(name)
		if id == "" {
			continue
		}
		d.rooms[id] = &domain.Room{
			ID: id,
			Permissions: map[string]string{
				domain.PermSearchLog: searchlogRank,
			},
		}
	}
	return d
}

// GetRoom returns the room for the ID, or nil if the bot is not in it.
func (d *Directory) GetRoom(id string) *domain.Room {
	return d.rooms[id]
}
