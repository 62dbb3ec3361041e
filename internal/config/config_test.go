package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"gpt4o"}, cfg.DefaultSelection())
	assert.Len(t, cfg.Catalog(), 4)
	assert.Equal(t, 120*time.Second, cfg.Webhook.JSONTimeout())
	assert.Equal(t, 180*time.Second, cfg.Webhook.MultipartTimeout())
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
webhook:
  url: https://hooks.example.com/multi
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://hooks.example.com/multi", cfg.Webhook.URL)
	assert.Equal(t, 120, cfg.Webhook.JSONTimeoutSeconds)
	assert.Equal(t, 180, cfg.Webhook.MultipartTimeoutSeconds)
	assert.Equal(t, "gpt4o", cfg.DefaultModel)
	assert.Len(t, cfg.Models, 4, "catalog falls back to the built-in set")
}

func TestLoadCustomCatalog(t *testing.T) {
	path := writeConfig(t, `
webhook:
  url: https://hooks.example.com/multi
models:
  - id: sonnet
    title: Sonnet
    desc: General model
default_model: sonnet
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "sonnet", cfg.Models[0].ID)
	assert.Equal(t, []string{"sonnet"}, cfg.DefaultSelection())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = -1 },
			want:   "server.port",
		},
		{
			name:   "bad scheme",
			mutate: func(c *Config) { c.Webhook.URL = "ftp://example.com/hook" },
			want:   "http or https",
		},
		{
			name:   "no host",
			mutate: func(c *Config) { c.Webhook.URL = "https://" },
			want:   "include a host",
		},
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.Webhook.JSONTimeoutSeconds = -5 },
			want:   "json_timeout_seconds",
		},
		{
			name:   "duplicate model",
			mutate: func(c *Config) { c.Models = append(c.Models, ModelConfig{ID: "gpt4o"}) },
			want:   "configured twice",
		},
		{
			name:   "empty model id",
			mutate: func(c *Config) { c.Models[0].ID = "  " },
			want:   "must not be empty",
		},
		{
			name:   "default not in catalog",
			mutate: func(c *Config) { c.DefaultModel = "missing" },
			want:   "not in the model catalog",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
