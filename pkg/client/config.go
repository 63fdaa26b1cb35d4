package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the structure of the client config file
type TOMLConfig struct {
	Server   ServerSection   `toml:"server"`
	Identity IdentitySection `toml:"identity"`
	Session  SessionSection  `toml:"session"`
	State    StateSection    `toml:"state"`
	Metrics  MetricsSection  `toml:"metrics"`

	Notifications NotificationsSection `toml:"notifications"`
}

type ServerSection struct {
	URL string `toml:"url"`
}

type IdentitySection struct {
	Nick  string `toml:"nick"`
	Token string `toml:"token"`
}

type SessionSection struct {
	IdleTimeoutMS         int    `toml:"idle_timeout_ms"`
	PageSize              int    `toml:"page_size"`
	DefaultChannel        uint64 `toml:"default_channel"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

type StateSection struct {
	Path string `toml:"path"`
}

type MetricsSection struct {
	Listen string `toml:"listen"`
}

type NotificationsSection struct {
	Desktop bool `toml:"desktop"`
}

// DefaultTOMLConfig returns the default TOML configuration
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Server: ServerSection{
			URL: "http://localhost:8080",
		},
		Session: SessionSection{
			IdleTimeoutMS:         5000,
			PageSize:              DefaultPageSize,
			DefaultChannel:        1,
			RequestTimeoutSeconds: 10,
		},
		State: StateSection{
			Path: "~/.local/share/yacs/state.db",
		},
	}
}

// IdleTimeout returns the server eviction timeout
func (c TOMLConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the HTTP client timeout
func (c TOMLConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Session.RequestTimeoutSeconds) * time.Second
}

// Credentials returns the configured identity
func (c TOMLConfig) Credentials() Identity {
	return Identity{Nick: c.Identity.Nick, Token: c.Identity.Token}
}

// Validate checks the values the session cannot run without. Identity is
// checked separately since it may come from flags.
func (c TOMLConfig) Validate() error {
	var errs []error
	if c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required"))
	}
	if _, err := HeartbeatInterval(c.IdleTimeout()); err != nil {
		errs = append(errs, fmt.Errorf("session.idle_timeout_ms: %w", err))
	}
	if c.Session.PageSize <= 0 {
		errs = append(errs, errors.New("session.page_size must be positive"))
	}
	if c.Session.RequestTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("session.request_timeout_seconds must be positive"))
	}
	return errors.Join(errs...)
}

// StatePath returns the state database path with ~ expanded
func (c TOMLConfig) StatePath() (string, error) {
	return expandHome(c.State.Path)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// LoadConfig loads configuration from a TOML file, creates default if not found,
// and applies environment variable overrides
func LoadConfig(path string) (TOMLConfig, error) {
	path, err := expandHome(path)
	if err != nil {
		return TOMLConfig{}, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultTOMLConfig()
		// A read-only config dir still leaves us with usable defaults
		_ = writeDefaultConfig(path)
		return applyEnvOverrides(config), nil
	}

	config := DefaultTOMLConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnvOverrides(config), nil
}

// applyEnvOverrides applies environment variable overrides to the config
// Environment variables follow the pattern: YACS_SECTION_KEY
// Example: YACS_SERVER_URL=https://chat.example.com
func applyEnvOverrides(config TOMLConfig) TOMLConfig {
	if val := os.Getenv("YACS_SERVER_URL"); val != "" {
		config.Server.URL = val
	}

	if val := os.Getenv("YACS_IDENTITY_NICK"); val != "" {
		config.Identity.Nick = val
	}
	if val := os.Getenv("YACS_IDENTITY_TOKEN"); val != "" {
		config.Identity.Token = val
	}

	if val := os.Getenv("YACS_SESSION_IDLE_TIMEOUT_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			config.Session.IdleTimeoutMS = ms
		}
	}
	if val := os.Getenv("YACS_SESSION_PAGE_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Session.PageSize = n
		}
	}
	if val := os.Getenv("YACS_SESSION_DEFAULT_CHANNEL"); val != "" {
		if id, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.Session.DefaultChannel = id
		}
	}
	if val := os.Getenv("YACS_SESSION_REQUEST_TIMEOUT_SECONDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Session.RequestTimeoutSeconds = n
		}
	}

	if val := os.Getenv("YACS_STATE_PATH"); val != "" {
		config.State.Path = val
	}

	if val := os.Getenv("YACS_METRICS_LISTEN"); val != "" {
		config.Metrics.Listen = val
	}

	if val := os.Getenv("YACS_NOTIFICATIONS_DESKTOP"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			config.Notifications.Desktop = b
		}
	}

	return config
}

func writeDefaultConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The token is a credential; keep the file private
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	content := `# YACS Client Configuration
# This file was auto-generated with default values
#
# Environment variables can override these settings:
# YACS_SECTION_KEY (e.g., YACS_SERVER_URL=https://chat.example.com)

[server]
# HTTP base URL; the websocket endpoint is <url>/ws
url = "http://localhost:8080"

[identity]
# Nickname and access token (flags --nick/--token take precedence)
nick = ""
token = ""

[session]
# Server idle eviction timeout; heartbeats are sent 1000ms before it
idle_timeout_ms = 5000

# Messages fetched per history page
page_size = 30

# Channel opened after connecting when the last used one is gone
default_channel = 1

request_timeout_seconds = 10

[state]
# SQLite file for preferences (last nick, last channel, mute)
path = "~/.local/share/yacs/state.db"

[metrics]
# Address for a local /metrics endpoint, e.g. "127.0.0.1:9091"
# Leave empty to disable
listen = ""

[notifications]
# Show a desktop notification next to the alert sound
desktop = false
`
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
