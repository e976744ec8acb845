package usermode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	conn := &testConn{nick: "ModeBot", user: "ModeBot3", host: "IRC.Freenode.net"}
	assert.Equal(t, "modebot!modebot3@irc.freenode.net", Mask(conn))
}

func TestParseModeChange(t *testing.T) {
	tests := []struct {
		in    string
		op    rune
		modes []rune
	}{
		{"+o", '+', []rune{'o'}},
		{"-ov", '-', []rune{'o', 'v'}},
		{"!o", '!', []rune{'o'}},
	}
	for _, tt := range tests {
		mc := ParseModeChange(tt.in)
		assert.Equal(t, tt.op, mc.Op, tt.in)
		assert.Equal(t, tt.modes, mc.Modes, tt.in)
	}

	mc := ParseModeChange("+")
	assert.Equal(t, '+', mc.Op)
	assert.Empty(t, mc.Modes)

	assert.Equal(t, ModeChange{}, ParseModeChange(""))
}

func TestTrimChannelMarker(t *testing.T) {
	assert.Equal(t, "#channel", TrimChannelMarker("=#channel"))
	assert.Equal(t, "#channel", TrimChannelMarker("*#channel"))
	assert.Equal(t, "#channel", TrimChannelMarker("@#channel"))
	assert.Equal(t, "#channel", TrimChannelMarker("#channel"))
	assert.Equal(t, "&local", TrimChannelMarker("=&local"))
}

func TestPrefixTableSplit(t *testing.T) {
	table := DefaultPrefixes()

	tests := []struct {
		token    string
		prefixes []rune
		nick     string
	}{
		{"@alice", []rune{'@'}, "alice"},
		{"@+alice", []rune{'@', '+'}, "alice"},
		{"&@multi", []rune{'&', '@'}, "multi"},
		{"alice", nil, "alice"},
		{"a@nick", nil, "a@nick"},
		{"$nick", nil, "$nick"},
		{"@$nick", []rune{'@'}, "$nick"},
		{"@", nil, "@"},
		{"@@", []rune{'@'}, "@"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		prefixes, nick := table.Split(tt.token)
		assert.Equal(t, tt.prefixes, prefixes, tt.token)
		assert.Equal(t, tt.nick, nick, tt.token)
	}
}

func TestParsePrefixTable(t *testing.T) {
	table, err := ParsePrefixTable(map[string]string{"$": "d", "@": "o"})
	require.NoError(t, err)
	assert.Equal(t, PrefixTable{'$': 'd', '@': 'o'}, table)

	_, err = ParsePrefixTable(map[string]string{"@@": "o"})
	assert.Error(t, err)

	_, err = ParsePrefixTable(map[string]string{"@": ""})
	assert.Error(t, err)
}

func TestPrefixTableModes(t *testing.T) {
	modes := DefaultPrefixes().Modes()
	assert.Len(t, modes, 5)
	for _, m := range []rune{'q', 'a', 'o', 'h', 'v'} {
		assert.Contains(t, modes, m)
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "unknown_operation", SkippedUnknownOperation.String())
	assert.Equal(t, "unknown", Result(42).String())
}
