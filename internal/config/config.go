package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds all daemon configuration
type Config struct {
	LogLevel   string `yaml:"log_level" env:"USERMODED_LOG_LEVEL"`
	LogFormat  string `yaml:"log_format" env:"USERMODED_LOG_FORMAT"`
	HTTPListen string `yaml:"http_listen" env:"USERMODED_HTTP_LISTEN"`

	// Prefixes replaces the default nickname prefix to mode letter mapping
	Prefixes map[string]string `yaml:"prefixes"`

	Networks []Network `yaml:"networks"`
}

// Network describes one IRC connection
type Network struct {
	Name        string   `yaml:"name"`
	Server      string   `yaml:"server"`
	Port        int      `yaml:"port"`
	TLS         bool     `yaml:"tls"`
	TLSInsecure bool     `yaml:"tls_insecure"`
	ServerPass  string   `yaml:"server_pass"`
	Nick        string   `yaml:"nick"`
	Username    string   `yaml:"username"`
	IRCName     string   `yaml:"irc_name"`
	SASLLogin   string   `yaml:"sasl_login"`
	SASLPass    string   `yaml:"sasl_password"`
	Channels    []string `yaml:"channels"`
}

// Load reads and parses a YAML configuration file, then applies
// environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		LogLevel:   "info",
		LogFormat:  "text",
		HTTPListen: "127.0.0.1:7070",
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("no networks configured")
	}

	seen := make(map[string]bool, len(c.Networks))
	// networks sharing nick, username and server share one mode store key
	identities := make(map[string]string, len(c.Networks))
	for i := range c.Networks {
		n := &c.Networks[i]
		if n.Server == "" {
			return fmt.Errorf("network %d: server is required", i)
		}
		if n.Nick == "" {
			return fmt.Errorf("network %d: nick is required", i)
		}

		// Set defaults
		if n.Name == "" {
			n.Name = n.Server
		}
		if n.Port == 0 {
			n.Port = 6667
			if n.TLS {
				n.Port = 6697
			}
		}
		if n.Username == "" {
			n.Username = n.Nick
		}
		if n.IRCName == "" {
			n.IRCName = n.Nick
		}

		if seen[n.Name] {
			return fmt.Errorf("network %q: duplicate name", n.Name)
		}
		seen[n.Name] = true

		id := strings.ToLower(n.Nick + "!" + n.Username + "@" + n.Server)
		if other, ok := identities[id]; ok {
			return fmt.Errorf("network %q: same server, nick and username as %q", n.Name, other)
		}
		identities[id] = n.Name
	}
	return nil
}
