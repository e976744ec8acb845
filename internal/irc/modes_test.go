package irc

import (
	"testing"

	"github.com/dalnet/usermoded/internal/usermode"
	"github.com/stretchr/testify/assert"
)

func TestParseChanModes(t *testing.T) {
	cm := parseChanModes("beI,k,l,imnpst")

	for _, m := range "beIk" {
		assert.Contains(t, cm.always, m)
	}
	assert.Contains(t, cm.onSet, 'l')
	assert.NotContains(t, cm.always, 'm')
	assert.NotContains(t, cm.onSet, 'm')
}

func TestDecodeModeChanges(t *testing.T) {
	members := usermode.DefaultPrefixes().Modes()
	cm := defaultChanModes()

	tests := []struct {
		modestring string
		args       []string
		want       []memberChange
	}{
		{"+o", []string{"alice"}, []memberChange{{"alice", "+o"}}},
		{"+ov", []string{"alice", "bob"}, []memberChange{{"alice", "+o"}, {"bob", "+v"}}},
		{"-o+v", []string{"alice", "alice"}, []memberChange{{"alice", "-o"}, {"alice", "+v"}}},
		{"+bo", []string{"*!*@x", "alice"}, []memberChange{{"alice", "+o"}}},
		{"+lo", []string{"20", "alice"}, []memberChange{{"alice", "+o"}}},
		{"-lo", []string{"alice"}, []memberChange{{"alice", "-o"}}},
		{"+nt", nil, nil},
		{"+o", nil, []memberChange{{"", "+o"}}},
	}
	for _, tt := range tests {
		got := decodeModeChanges(tt.modestring, tt.args, members, cm)
		assert.Equal(t, tt.want, got, tt.modestring)
	}
}
