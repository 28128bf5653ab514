package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "codablews.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
app_name: feed-client
log:
  level: debug
  format: json
socket:
  url: wss://feed.example.org/stream
  transport: Gorilla
  protocols: [json.v1, json.v0]
  headers:
    Authorization: Bearer abc
  codec: cbor
  handshake_timeout_ms: 1500
  read_limit: 4096
  error_policy: deliver
  typed_as_text: true
  buffer: 0
  send_rate: 12.5
  send_burst: 3
metrics:
  enable: true
  listen: 127.0.0.1:9100
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "feed-client", cfg.AppName)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "wss://feed.example.org/stream", cfg.Socket.URL)
	assert.Equal(t, "gorilla", cfg.Socket.Transport)
	assert.Equal(t, []string{"json.v1", "json.v0"}, cfg.Socket.Protocols)
	assert.Equal(t, "Bearer abc", cfg.Socket.Headers["authorization"])
	assert.Equal(t, "cbor", cfg.Socket.Codec)
	assert.Equal(t, 1500, cfg.Socket.HandshakeTimeoutMS)
	assert.Equal(t, int64(4096), cfg.Socket.ReadLimit)
	assert.Equal(t, "deliver", cfg.Socket.ErrorPolicy)
	assert.True(t, cfg.Socket.TypedAsText)
	assert.Equal(t, 0, cfg.Socket.Buffer)
	assert.Equal(t, 12.5, cfg.Socket.SendRate)
	assert.Equal(t, 3, cfg.Socket.SendBurst)
	assert.True(t, cfg.Metrics.Enable)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)
	// untouched sections keep defaults
	assert.Equal(t, "/echo", cfg.Server.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	p := writeConfig(t, "socket:\n  url: ws://file\n")
	t.Setenv("CODABLEWS_SOCKET_URL", "ws://env")
	t.Setenv("CODABLEWS_LOG_LEVEL", "warn")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ws://env", cfg.Socket.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"level":  "log:\n  level: loud\n",
		"policy": "socket:\n  error_policy: retry\n",
		"buffer": "socket:\n  buffer: -1\n",
		"rate":   "socket:\n  send_rate: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "socket: [unterminated"))
	assert.Error(t, err)
}
