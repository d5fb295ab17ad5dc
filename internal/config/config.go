// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhuliguang/Sidekick/pkg/logger"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Trade         TradeConfig         `yaml:"trade"`
	Sync          SyncConfig          `yaml:"sync"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TradeConfig defines the remote trading API endpoints and transport.
type TradeConfig struct {
	BaseURL     string          `yaml:"base_url"`
	SearchURL   string          `yaml:"search_url"`
	ExchangeURL string          `yaml:"exchange_url"`
	UserAgent   string          `yaml:"user_agent"`
	Timeout     time.Duration   `yaml:"timeout"`
	HTTP2       *bool           `yaml:"http2"` // default: true
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// HTTP2Enabled reports whether HTTP/2 is negotiated on the shared transport.
func (t *TradeConfig) HTTP2Enabled() bool {
	return t.HTTP2 == nil || *t.HTTP2
}

// RateLimitConfig paces requests to the remote API.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// SyncConfig defines reference data synchronization settings.
type SyncConfig struct {
	RetryInterval time.Duration `yaml:"retry_interval"`
	League        string        `yaml:"league"` // selected once data is ready
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default endpoints of the public trading API.
const (
	DefaultBaseURL     = "https://www.pathofexile.com/api/trade/"
	DefaultSearchURL   = "https://www.pathofexile.com/trade/search/"
	DefaultExchangeURL = "https://www.pathofexile.com/trade/exchange/"
	DefaultUserAgent   = "sidekick/dev (+https://github.com/zhuliguang/Sidekick)"
	DefaultLeague      = "Standard"
)

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config content. Environment variables are expanded
// before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyTradeDefaults(&cfg.Trade)
	applySyncDefaults(&cfg.Sync)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyTradeDefaults(t *TradeConfig) {
	if t.BaseURL == "" {
		t.BaseURL = DefaultBaseURL
	}
	if t.SearchURL == "" {
		t.SearchURL = DefaultSearchURL
	}
	if t.ExchangeURL == "" {
		t.ExchangeURL = DefaultExchangeURL
	}
	if t.UserAgent == "" {
		t.UserAgent = DefaultUserAgent
	}
	if t.Timeout == 0 {
		t.Timeout = 15 * time.Second
	}
	if t.RateLimit.PerSecond == 0 {
		t.RateLimit.PerSecond = 1.0
	}
	if t.RateLimit.Burst == 0 {
		t.RateLimit.Burst = 5
	}
}

func applySyncDefaults(s *SyncConfig) {
	if s.RetryInterval == 0 {
		s.RetryInterval = time.Minute
	}
	if s.League == "" {
		s.League = DefaultLeague
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

// Validate reports every invalid setting at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}

	for name, raw := range map[string]string{
		"trade.base_url":     cfg.Trade.BaseURL,
		"trade.search_url":   cfg.Trade.SearchURL,
		"trade.exchange_url": cfg.Trade.ExchangeURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if cfg.Trade.Timeout < 0 {
		errs = append(errs, fmt.Errorf("trade.timeout must not be negative"))
	}
	if cfg.Trade.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("trade.rate_limit.per_second must not be negative"))
	}
	if cfg.Trade.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("trade.rate_limit.burst must not be negative"))
	}

	if cfg.Sync.RetryInterval < time.Second {
		errs = append(errs, fmt.Errorf("sync.retry_interval must be at least 1s (got %s)", cfg.Sync.RetryInterval))
	}

	if cfg.Notifications.Discord.Enabled {
		if cfg.Notifications.Discord.WebhookURL == "" {
			errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
		} else if err := validateURL(cfg.Notifications.Discord.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("notifications.discord.webhook_url: %w", err))
		}
	}

	if !logger.ValidLevel(cfg.Logging.Level) {
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	if !logger.ValidFormat(cfg.Logging.Format) {
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https URL (got %q)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
