package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yacs", "config.toml")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), config)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// The generated file parses back to the defaults
	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), reloaded)
	assert.NoError(t, reloaded.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
url = "https://chat.example.com"

[identity]
nick = "alice"
token = "t0k"

[session]
idle_timeout_ms = 8000
page_size = 50
`), 0600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", config.Server.URL)
	assert.Equal(t, Identity{Nick: "alice", Token: "t0k"}, config.Credentials())
	assert.Equal(t, 8*time.Second, config.IdleTimeout())
	assert.Equal(t, 50, config.Session.PageSize)
	// Unset keys keep their defaults
	assert.Equal(t, uint64(1), config.Session.DefaultChannel)
	assert.Equal(t, 10*time.Second, config.RequestTimeout())
}

func TestLoadConfigParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nurl = "), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("YACS_SERVER_URL", "http://override:9000")
	t.Setenv("YACS_IDENTITY_NICK", "bob")
	t.Setenv("YACS_IDENTITY_TOKEN", "secret")
	t.Setenv("YACS_SESSION_IDLE_TIMEOUT_MS", "3000")
	t.Setenv("YACS_SESSION_PAGE_SIZE", "not-a-number")
	t.Setenv("YACS_SESSION_DEFAULT_CHANNEL", "4")
	t.Setenv("YACS_METRICS_LISTEN", "127.0.0.1:9091")
	t.Setenv("YACS_NOTIFICATIONS_DESKTOP", "true")

	config := applyEnvOverrides(DefaultTOMLConfig())
	assert.Equal(t, "http://override:9000", config.Server.URL)
	assert.Equal(t, Identity{Nick: "bob", Token: "secret"}, config.Credentials())
	assert.Equal(t, 3000, config.Session.IdleTimeoutMS)
	assert.Equal(t, DefaultPageSize, config.Session.PageSize, "invalid numbers are ignored")
	assert.Equal(t, uint64(4), config.Session.DefaultChannel)
	assert.Equal(t, "127.0.0.1:9091", config.Metrics.Listen)
	assert.True(t, config.Notifications.Desktop)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TOMLConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*TOMLConfig) {}},
		{name: "no url", mutate: func(c *TOMLConfig) { c.Server.URL = "" }, wantErr: true},
		{name: "timeout too short", mutate: func(c *TOMLConfig) { c.Session.IdleTimeoutMS = 1000 }, wantErr: true},
		{name: "smallest timeout", mutate: func(c *TOMLConfig) { c.Session.IdleTimeoutMS = 1001 }},
		{name: "zero page size", mutate: func(c *TOMLConfig) { c.Session.PageSize = 0 }, wantErr: true},
		{name: "zero request timeout", mutate: func(c *TOMLConfig) { c.Session.RequestTimeoutSeconds = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultTOMLConfig()
			tt.mutate(&c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestStatePathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := DefaultTOMLConfig()
	p, err := c.StatePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/yacs/state.db"), p)

	c.State.Path = "/var/lib/yacs.db"
	p, err = c.StatePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/yacs.db", p)
}
