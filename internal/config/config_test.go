package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hometasks.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "file", c.Store.Backend)
	assert.Equal(t, "data/tasks.csv", c.Store.Path)
	assert.Equal(t, 720*time.Hour, c.Auth.SessionTTL)
	assert.Equal(t, 30, c.Tasks.DefaultRecurrenceDays)
	assert.Empty(t, c.Auth.Password)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	p := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
auth:
  password: from-file
  session_ttl: 12h
store:
  backend: sqlite
  path: /tmp/tasks.db
tasks:
  timezone: Europe/London
  default_recurrence_days: 14
`)
	t.Setenv("HOMETASKS_AUTH_PASSWORD", "from-env")
	t.Setenv("HOMETASKS_LOG_LEVEL", "debug")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, "from-env", c.Auth.Password)
	assert.Equal(t, 12*time.Hour, c.Auth.SessionTTL)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 14, c.Tasks.DefaultRecurrenceDays)

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())

	opts := c.GatewayOptions()
	assert.Equal(t, "sqlite", opts.Backend)
	assert.Equal(t, "/tmp/tasks.db", opts.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"unknown backend":   func(c *Config) { c.Store.Backend = "ftp" },
		"postgres no dsn":   func(c *Config) { c.Store.Backend = "postgres" },
		"sheets no id":      func(c *Config) { c.Store.Backend = "sheets" },
		"bad timezone":      func(c *Config) { c.Tasks.Timezone = "Mars/Olympus" },
		"negative interval": func(c *Config) { c.Tasks.DefaultRecurrenceDays = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			var c Config
			c.ApplyDefaults()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}

	var ok Config
	ok.ApplyDefaults()
	assert.NoError(t, ok.Validate())
}
