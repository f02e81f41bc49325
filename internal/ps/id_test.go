package ps

import "testing"

func TestToID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Annika", "annika"},
		{"Heart of Etheria", "heartofetheria"},
		{"@Annika", "annika"},
		{"room-name!", "roomname"},
		{"ユーザー", ""},
		{"abc123", "abc123"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ToID(c.in); got != c.want {
			t.Errorf("ToID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRankAtLeast(t *testing.T) {
	cases := []struct {
		have, want string
		expect     bool
	}{
		{"~", "%", true},
		{"%", "%", true},
		{"+", "%", false},
		{"", "%", false},
		{"@", "+", true},
		{"", "", true},
		{"?", "%", false},
	}
	for _, c := range cases {
		if got := RankAtLeast(c.have, c.want); got != c.expect {
			t.Errorf("RankAtLeast(%q, %q) = %v, want %v", c.have, c.want, got, c.expect)
		}
	}
}
