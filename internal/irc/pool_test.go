package irc

import (
	"io"
	"testing"

	"github.com/dalnet/usermoded/internal/config"
	"github.com/dalnet/usermoded/internal/usermode"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSharesStoreAcrossNetworks(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := usermode.New(nil)

	p := NewPool([]config.Network{
		{Name: "one", Server: "irc.one.net", Port: 6667, Nick: "bot", Username: "bot"},
		{Name: "two", Server: "irc.two.net", Port: 6667, Nick: "bot", Username: "bot"},
	}, store, logger)

	assert.Equal(t, []string{"one", "two"}, p.Networks())

	one, ok := p.Network("one")
	require.True(t, ok)
	two, ok := p.Network("two")
	require.True(t, ok)
	_, ok = p.Network("three")
	assert.False(t, ok)

	feed(t, p.clients["one"].onMode, ":op!o@h MODE #chan +o alice")

	assert.True(t, store.HasMode(one, "#chan", "alice", 'o'))
	assert.False(t, store.HasMode(two, "#chan", "alice", 'o'))
}
