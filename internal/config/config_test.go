package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log_level: debug
prefixes:
  "@": o
  "+": v
networks:
  - name: dalnet
    server: irc.dal.net
    tls: true
    nick: modebot
    channels: ["#help", "#ops"]
  - server: irc.libera.chat
    port: 6665
    nick: modebot
    username: mb
`

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:7070", cfg.HTTPListen)
	assert.Equal(t, map[string]string{"@": "o", "+": "v"}, cfg.Prefixes)
	require.Len(t, cfg.Networks, 2)

	dal := cfg.Networks[0]
	assert.Equal(t, "dalnet", dal.Name)
	assert.Equal(t, 6697, dal.Port)
	assert.Equal(t, "modebot", dal.Username)
	assert.Equal(t, "modebot", dal.IRCName)
	assert.Equal(t, []string{"#help", "#ops"}, dal.Channels)

	libera := cfg.Networks[1]
	assert.Equal(t, "irc.libera.chat", libera.Name)
	assert.Equal(t, 6665, libera.Port)
	assert.Equal(t, "mb", libera.Username)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("USERMODED_LOG_LEVEL", "warn")
	t.Setenv("USERMODED_LOG_FORMAT", "json")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"no networks":     `log_level: info`,
		"missing server":  "networks:\n  - nick: bot\n",
		"missing nick":    "networks:\n  - server: irc.example.com\n",
		"duplicate name":  "networks:\n  - server: a\n    nick: bot\n  - name: a\n    server: b\n    nick: bot\n",
		"shared identity": "networks:\n  - name: a\n    server: irc.example.com\n    nick: bot\n  - name: b\n    server: IRC.example.com\n    nick: Bot\n",
		"bad yaml":        "networks: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestValidationAllowsSameServerWithOtherNick(t *testing.T) {
	cfg, err := Parse([]byte("networks:\n  - name: a\n    server: irc.example.com\n    nick: bot\n" +
		"  - name: b\n    server: irc.example.com\n    nick: bot2\n"))
	require.NoError(t, err)
	assert.Len(t, cfg.Networks, 2)
}
