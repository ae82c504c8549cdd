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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, SourceWebSocket, cfg.Stream.Source)
	assert.Equal(t, "ws://localhost:8081/v1/ws", cfg.Stream.URL)
	assert.True(t, cfg.Stream.Reconnect.Enabled)
	assert.Equal(t, time.Second, cfg.Stream.Reconnect.InitialBackoff)
	assert.Equal(t, "task_updates", cfg.Redis.TaskChannel)
	assert.Equal(t, "system_health", cfg.Redis.HealthChannel)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Journal.Retention)
	assert.Equal(t, "0.0.0.0:8090", cfg.Server.Address())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
stream:
  source: redis
  reconnect:
    enabled: false
    max_backoff: 5s
redis:
  addr: redis:6380
journal:
  enabled: true
  buffer_size: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, SourceRedis, cfg.Stream.Source)
	assert.False(t, cfg.Stream.Reconnect.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Stream.Reconnect.MaxBackoff)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, 8, cfg.Journal.BufferSize)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "stream:\n  url: ws://file:1/ws\n")
	t.Setenv("AGENTMESH_STREAM_URL", "ws://env:2/ws")
	t.Setenv("AGENTMESH_LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://env:2/ws", cfg.Stream.URL)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid websocket", mutate: func(c *Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Stream.Source = "carrier-pigeon" }, wantErr: true},
		{name: "websocket without url", mutate: func(c *Config) { c.Stream.URL = "" }, wantErr: true},
		{name: "file without path", mutate: func(c *Config) { c.Stream.Source = SourceFile }, wantErr: true},
		{name: "file with path", mutate: func(c *Config) { c.Stream.Source = SourceFile; c.Stream.File = "frames.ndjson" }},
		{name: "reconnect without backoff", mutate: func(c *Config) { c.Stream.Reconnect.InitialBackoff = 0 }, wantErr: true},
		{name: "no reconnect without backoff", mutate: func(c *Config) {
			c.Stream.Reconnect.Enabled = false
			c.Stream.Reconnect.InitialBackoff = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
