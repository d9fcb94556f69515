package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	APIBase string `toml:"api_base"` // REST base URL, e.g. http://localhost:8000/api
	WSURL   string `toml:"ws_url"`   // push channel URL; derived from APIBase when empty
	DBPath  string `toml:"db_path"`  // session recorder database
	LogDir  string `toml:"log_dir"`
}

const defaultAPIBase = "http://localhost:8000/api"

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "stimmung", "config.toml")
}

// DefaultDataDir returns ~/.local/share/stimmung.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "stimmung")
}

// LoadFrom reads and parses the config file at the given path, then fills
// defaults. A missing file is not an error — all fields have defaults, so
// the dashboard works against a localhost backend with no config at all.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	if c.WSURL == "" {
		c.WSURL = DeriveWSURL(c.APIBase)
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(DefaultDataDir(), "stimmung.db")
	}
	if c.LogDir == "" {
		c.LogDir = DefaultDataDir()
	}
}

// DeriveWSURL maps a REST base URL to the sentiment stream endpoint on the
// same host: http(s) becomes ws(s) and /ws/sentiment is appended.
func DeriveWSURL(apiBase string) string {
	ws := apiBase
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/ws/sentiment"
}
