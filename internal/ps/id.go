// Package ps holds the small pieces of Pokémon Showdown convention the
// rest of the service relies on: user ID canonicalization and the rank
// sigil ladder.
package ps

import "strings"

// rankOrder lists the rank sigils from lowest to highest authority.
// A user with no sigil ranks below all of them.
const rankOrder = "+^%@*#&~"

// ToID canonicalizes a user or room name the way the chat service does:
// lowercased, with everything but ASCII letters and digits stripped.
func ToID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// IsRank reports whether the sigil is a recognized rank sigil.
func IsRank(sigil string) bool {
	return len(sigil) == 1 && strings.Contains(rankOrder, sigil)
}

// RankAtLeast reports whether the rank sigil have is at or above want.
// Unrecognized sigils rank below everything.
func RankAtLeast(have, want string) bool {
	return rankIndex(have) >= rankIndex(want)
}

func rankIndex(sigil string) int {
	if len(sigil) != 1 {
		return -1
	}
	return strings.Index(rankOrder, sigil)
}
