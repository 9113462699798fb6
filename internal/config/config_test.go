package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
version: "1.0"
server:
  host: 127.0.0.1
  http_port: 9090
github:
  client_id: client-id
  client_secret: client-secret
  self_url: https://bot.example.com/
webhook:
  forward_chat_id: 777
telegram:
  enabled: false
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "client-id", cfg.GitHub.ClientID)
	assert.Equal(t, int64(777), cfg.Webhook.ForwardChatID)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
version: "1.0"
github:
  client_id: client-id
  client_secret: client-secret
  self_url: https://bot.example.com
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "https://github.com/login/oauth/access_token", cfg.GitHub.TokenURL)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.GitHub.RequestTimeout)
}

func TestParseInvalidConfigs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "{{{"},
		{name: "missing version", yaml: `
github:
  client_id: a
  client_secret: b
  self_url: https://x
`},
		{name: "missing client_id", yaml: `
version: "1.0"
github:
  client_secret: b
  self_url: https://x
`},
		{name: "missing client_secret", yaml: `
version: "1.0"
github:
  client_id: a
  self_url: https://x
`},
		{name: "missing self_url", yaml: `
version: "1.0"
github:
  client_id: a
  client_secret: b
`},
		{name: "telegram enabled without token", yaml: `
version: "1.0"
github:
  client_id: a
  client_secret: b
  self_url: https://x
telegram:
  enabled: true
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRedirectURI(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	// Trailing slash on self_url is stripped
	assert.Equal(t, "https://bot.example.com/github/authorize", cfg.GitHub.RedirectURI())
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	loader := NewLoader(path)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loader.Get())
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_GH_CLIENT_SECRET", "secret-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1.0"
github:
  client_id: client-id
  client_secret: ${TEST_GH_CLIENT_SECRET}
  self_url: https://bot.example.com
`), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.GitHub.ClientSecret)
}

func TestLoaderReloadCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)

	var gotPort int
	loader.SetOnChange(func(cfg *Config) {
		gotPort = cfg.Server.HTTPPort
	})

	updated := []byte(`
version: "1.0"
server:
  http_port: 9191
github:
  client_id: client-id
  client_secret: client-secret
  self_url: https://bot.example.com
`)
	require.NoError(t, os.WriteFile(path, updated, 0o644))

	_, err = loader.Reload()
	require.NoError(t, err)
	assert.Equal(t, 9191, gotPort)
}
