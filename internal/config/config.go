package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	GitHub   GitHubConfig   `yaml:"github"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig contains HTTP gateway configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	HTTPPort        int           `yaml:"http_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
}

// GitHubConfig contains the OAuth app credentials and endpoints.
type GitHubConfig struct {
	// ClientID and ClientSecret identify the GitHub OAuth App.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// SelfURL is the public base URL of this service; the OAuth redirect URI
	// is SelfURL + "/github/authorize". Trailing slashes are stripped.
	SelfURL string `yaml:"self_url"`
	// TokenURL and APIBaseURL default to github.com endpoints and exist so
	// tests can point at a local server.
	TokenURL   string `yaml:"token_url"`
	APIBaseURL string `yaml:"api_base_url"`
	// RequestTimeout bounds every outbound call to GitHub.
	// Default: 15s
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WebhookConfig contains webhook intake configuration.
type WebhookConfig struct {
	// ForwardChatID is the Telegram chat that receives webhook notifications.
	// Zero disables forwarding; events are still accepted and logged.
	ForwardChatID int64 `yaml:"forward_chat_id"`
	// Secret enables X-Hub-Signature-256 verification when non-empty.
	// Empty keeps the intake open, matching the original plugin.
	Secret string `yaml:"secret"`
}

// TelegramConfig contains Telegram bot configuration.
type TelegramConfig struct {
	Enabled   bool              `yaml:"enabled"`
	BotToken  string            `yaml:"bot_token"`
	ChatID    int64             `yaml:"chat_id"`
	RateLimit TelegramRateLimit `yaml:"rate_limit"`
}

// TelegramRateLimit contains Telegram rate limiting configuration.
type TelegramRateLimit struct {
	MessagesPerMinute int `yaml:"messages_per_minute"`
}

// APIConfig contains gateway middleware configuration.
type APIConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// DatabaseConfig contains the settings/delivery-log database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

const (
	defaultTokenURL   = "https://github.com/login/oauth/access_token"
	defaultAPIBaseURL = "https://api.github.com"
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github: %w", err)
	}

	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.HTTPPort == 0 {
		s.HTTPPort = 8080
	}
	if s.HTTPPort < 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535")
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return nil
}

// Validate validates the GitHub OAuth configuration. Credentials are checked
// up front so a misconfigured deployment fails at startup instead of on the
// first authorization attempt.
func (g *GitHubConfig) Validate() error {
	g.ClientID = strings.TrimSpace(g.ClientID)
	g.ClientSecret = strings.TrimSpace(g.ClientSecret)
	g.SelfURL = strings.TrimRight(strings.TrimSpace(g.SelfURL), "/")

	if g.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if g.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if g.SelfURL == "" {
		return fmt.Errorf("self_url is required")
	}
	if g.TokenURL == "" {
		g.TokenURL = defaultTokenURL
	}
	if g.APIBaseURL == "" {
		g.APIBaseURL = defaultAPIBaseURL
	}
	g.APIBaseURL = strings.TrimRight(g.APIBaseURL, "/")
	if g.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if g.RequestTimeout == 0 {
		g.RequestTimeout = 15 * time.Second
	}
	return nil
}

// Validate validates Telegram configuration.
func (t *TelegramConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.BotToken == "" {
		return fmt.Errorf("bot_token is required when telegram is enabled")
	}
	if t.RateLimit.MessagesPerMinute == 0 {
		t.RateLimit.MessagesPerMinute = 30
	}
	if t.RateLimit.MessagesPerMinute < 0 {
		return fmt.Errorf("messages_per_minute must be positive")
	}
	return nil
}

// RedirectURI returns the OAuth callback URL registered with GitHub.
func (g *GitHubConfig) RedirectURI() string {
	return g.SelfURL + "/github/authorize"
}
