package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"modelrelay/internal/models"
)

const (
	defaultPort       = 8080
	defaultWebhookURL = "https://sp12012012.app.n8n.cloud/webhook-test/multi"
	defaultModelID    = "gpt4o"

	// Audio uploads are larger and slower to process upstream, so
	// multipart submits get a longer deadline than JSON ones.
	defaultJSONTimeoutSeconds      = 120
	defaultMultipartTimeoutSeconds = 180
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server       ServerConfig  `yaml:"server"`
	Webhook      WebhookConfig `yaml:"webhook"`
	Models       []ModelConfig `yaml:"models"`
	DefaultModel string        `yaml:"default_model"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WebhookConfig names the upstream endpoint and its per-kind timeouts.
type WebhookConfig struct {
	URL                     string `yaml:"url"`
	JSONTimeoutSeconds      int    `yaml:"json_timeout_seconds"`
	MultipartTimeoutSeconds int    `yaml:"multipart_timeout_seconds"`
}

// JSONTimeout returns the deadline applied to JSON-bodied submits.
func (w WebhookConfig) JSONTimeout() time.Duration {
	return time.Duration(w.JSONTimeoutSeconds) * time.Second
}

// MultipartTimeout returns the deadline applied to multipart submits.
func (w WebhookConfig) MultipartTimeout() time.Duration {
	return time.Duration(w.MultipartTimeoutSeconds) * time.Second
}

// ModelConfig describes a model offered by the form.
type ModelConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Desc  string `yaml:"desc"`
}

// Default returns the built-in configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: defaultPort},
		Webhook: WebhookConfig{
			URL:                     defaultWebhookURL,
			JSONTimeoutSeconds:      defaultJSONTimeoutSeconds,
			MultipartTimeoutSeconds: defaultMultipartTimeoutSeconds,
		},
		Models: []ModelConfig{
			{ID: "gpt4o", Title: "GPT-4o", Desc: "High-capacity LLM"},
			{ID: "gpt4o-mini", Title: "GPT-4o Mini", Desc: "Faster, cheaper LLM"},
			{ID: "whisper", Title: "Whisper", Desc: "Audio → text transcription"},
			{ID: "gpt4o-vision", Title: "Vision", Desc: "Image understanding"},
		},
		DefaultModel: defaultModelID,
	}
}

// Load reads YAML configuration from disk, fills defaults for omitted
// fields and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if strings.TrimSpace(c.Webhook.URL) == "" {
		c.Webhook.URL = def.Webhook.URL
	}
	if c.Webhook.JSONTimeoutSeconds == 0 {
		c.Webhook.JSONTimeoutSeconds = def.Webhook.JSONTimeoutSeconds
	}
	if c.Webhook.MultipartTimeoutSeconds == 0 {
		c.Webhook.MultipartTimeoutSeconds = def.Webhook.MultipartTimeoutSeconds
	}
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = def.DefaultModel
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if err := validateWebhookURL(c.Webhook.URL); err != nil {
		return err
	}
	if c.Webhook.JSONTimeoutSeconds <= 0 {
		return fmt.Errorf("webhook.json_timeout_seconds must be positive, got %d", c.Webhook.JSONTimeoutSeconds)
	}
	if c.Webhook.MultipartTimeoutSeconds <= 0 {
		return fmt.Errorf("webhook.multipart_timeout_seconds must be positive, got %d", c.Webhook.MultipartTimeoutSeconds)
	}

	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	seen := make(map[string]bool, len(c.Models))
	for _, model := range c.Models {
		id := strings.TrimSpace(model.ID)
		if id == "" {
			return fmt.Errorf("model id must not be empty")
		}
		if seen[id] {
			return fmt.Errorf("model id %q configured twice", id)
		}
		seen[id] = true
	}

	if !seen[c.DefaultModel] {
		return fmt.Errorf("default_model %q is not in the model catalog", c.DefaultModel)
	}

	return nil
}

func validateWebhookURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("webhook.url must be provided")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("webhook.url %q is not a valid URL: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("webhook.url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("webhook.url %q must include a host", raw)
	}
	return nil
}

// Catalog returns the configured models as display metadata.
func (c Config) Catalog() []models.ModelInfo {
	out := make([]models.ModelInfo, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, models.ModelInfo{ID: m.ID, Title: m.Title, Desc: m.Desc})
	}
	return out
}

// DefaultSelection is the model set used when the user picked none.
func (c Config) DefaultSelection() []string {
	return []string{c.DefaultModel}
}
