package usermode

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Connection exposes the identity of the session a notification arrived on.
// Values are read on every lookup since the nickname changes over time.
type Connection interface {
	Nickname() string
	Username() string
	ServerHostname() string
}

// Mask returns the lower-cased nick!user@host identity of a connection
func Mask(conn Connection) string {
	return strings.ToLower(fmt.Sprintf("%s!%s@%s",
		conn.Nickname(), conn.Username(), conn.ServerHostname()))
}

// ModeChange is a parsed mode-change token such as "+ov" or "-o"
type ModeChange struct {
	Op    rune
	Modes []rune
}

// ParseModeChange splits the leading operation character from the mode letters.
// The operation is returned as-is; callers decide what to do with anything
// other than '+' or '-'.
func ParseModeChange(s string) ModeChange {
	op, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ModeChange{}
	}
	return ModeChange{Op: op, Modes: []rune(s[size:])}
}

// channelMarkers are the RPL_NAMREPLY channel status symbols
const channelMarkers = "=*@"

// TrimChannelMarker strips leading channel status symbols from a NAMES channel token
func TrimChannelMarker(channel string) string {
	return strings.TrimLeft(channel, channelMarkers)
}

// PrefixTable maps nickname prefix characters to channel mode letters
type PrefixTable map[rune]rune

// DefaultPrefixes returns the standard owner/admin/op/halfop/voice prefixes
func DefaultPrefixes() PrefixTable {
	return PrefixTable{
		'~': 'q', // owner
		'&': 'a', // admin
		'@': 'o', // op
		'%': 'h', // halfop
		'+': 'v', // voice
	}
}

// ParsePrefixTable converts a configured string mapping into a PrefixTable.
// Keys and values must be exactly one character.
func ParsePrefixTable(raw map[string]string) (PrefixTable, error) {
	table := make(PrefixTable, len(raw))
	for prefix, mode := range raw {
		if utf8.RuneCountInString(prefix) != 1 {
			return nil, fmt.Errorf("prefix %q must be a single character", prefix)
		}
		if utf8.RuneCountInString(mode) != 1 {
			return nil, fmt.Errorf("mode %q for prefix %q must be a single character", mode, prefix)
		}
		p, _ := utf8.DecodeRuneInString(prefix)
		m, _ := utf8.DecodeRuneInString(mode)
		table[p] = m
	}
	return table, nil
}

// Split separates the leading run of known prefix characters from the nick in a
// member token like "@+alice". At least one character is always left for the
// nick, so a token made only of prefix characters keeps its last one as the nick.
// A token without a recognized leading prefix yields no prefixes.
func (t PrefixTable) Split(token string) (prefixes []rune, nick string) {
	runes := []rune(token)
	n := 0
	for n < len(runes) {
		if _, ok := t[runes[n]]; !ok {
			break
		}
		n++
	}
	if n == len(runes) {
		n--
	}
	if n <= 0 {
		return nil, token
	}
	return runes[:n], string(runes[n:])
}

// Modes returns the set of mode letters the table translates to
func (t PrefixTable) Modes() map[rune]struct{} {
	modes := make(map[rune]struct{}, len(t))
	for _, m := range t {
		modes[m] = struct{}{}
	}
	return modes
}

func (t PrefixTable) clone() PrefixTable {
	c := make(PrefixTable, len(t))
	for p, m := range t {
		c[p] = m
	}
	return c
}
