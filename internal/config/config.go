// Package config loads a YAML session profile describing how to reach
// and authenticate against an IMAP server.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything needed to connect, authenticate, and operate
// a Client session.
type Config struct {
	Connection ConnectionConfig `koanf:"connection"`
	Auth       AuthConfig       `koanf:"auth"`
	TLS        TLSConfig        `koanf:"tls"`
	Idle       IdleConfig       `koanf:"idle"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ConnectionConfig holds host/port/timeout settings.
type ConnectionConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	ConnectTimeout string `koanf:"connect_timeout"`
	CommandTimeout string `koanf:"command_timeout"`
	TagPrefix      string `koanf:"tag_prefix"`
}

// AuthConfig selects and parameterizes an authentication mechanism.
// Exactly one of Password or XOAuth2Token should be set; Password wins
// if both are present.
type AuthConfig struct {
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	XOAuth2Token string `koanf:"xoauth2_token"`
	Timeout      string `koanf:"timeout"`
}

// TLSConfig controls the transport's TLS behavior.
type TLSConfig struct {
	Enabled            bool   `koanf:"enabled"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify"`
	ServerName         string `koanf:"server_name"`
	CAFile             string `koanf:"ca_file"`
	MinVersion         string `koanf:"min_version"` // "1.2" or "1.3"
}

// IdleConfig controls the IDLE/watch controller's cadence.
type IdleConfig struct {
	RefreshInterval string `koanf:"refresh_interval"` // RFC 2177 recommends < 29m
	PollInterval    string `koanf:"poll_interval"`    // fallback when IDLE is unsupported
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
	Output string `koanf:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Host:           "localhost",
			Port:           993,
			ConnectTimeout: "30s",
			CommandTimeout: "1m",
			TagPrefix:      "A",
		},
		TLS: TLSConfig{
			Enabled:    true,
			MinVersion: "1.2",
		},
		Idle: IdleConfig{
			RefreshInterval: "20m",
			PollInterval:    "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads a YAML session profile from path, falling back to
// DefaultConfig when the file does not exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable to open a session.
func (c *Config) Validate() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.Port < 1 || c.Connection.Port > 65535 {
		return fmt.Errorf("connection.port must be between 1 and 65535 (got: %d)", c.Connection.Port)
	}
	if c.Connection.TagPrefix == "" {
		return fmt.Errorf("connection.tag_prefix is required")
	}

	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}
	if c.Auth.Password == "" && c.Auth.XOAuth2Token == "" {
		return fmt.Errorf("auth.password or auth.xoauth2_token is required")
	}

	if err := c.validateTimeouts(); err != nil {
		return err
	}

	if c.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[c.Logging.Level] {
			return fmt.Errorf("logging.level must be one of: debug, info, warn, error (got: %s)", c.Logging.Level)
		}
	}
	if c.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[c.Logging.Format] {
			return fmt.Errorf("logging.format must be one of: json, text (got: %s)", c.Logging.Format)
		}
	}
	if c.TLS.MinVersion != "" && c.TLS.MinVersion != "1.2" && c.TLS.MinVersion != "1.3" {
		return fmt.Errorf("tls.min_version must be one of: 1.2, 1.3 (got: %s)", c.TLS.MinVersion)
	}

	return nil
}

func (c *Config) validateTimeouts() error {
	timeouts := map[string]string{
		"connection.connect_timeout": c.Connection.ConnectTimeout,
		"connection.command_timeout": c.Connection.CommandTimeout,
		"auth.timeout":                c.Auth.Timeout,
		"idle.refresh_interval":       c.Idle.RefreshInterval,
		"idle.poll_interval":          c.Idle.PollInterval,
	}

	for name, raw := range timeouts {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s is invalid: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive (got: %s)", name, raw)
		}
	}

	if c.Idle.RefreshInterval != "" {
		d, _ := time.ParseDuration(c.Idle.RefreshInterval)
		if d > 29*time.Minute {
			return fmt.Errorf("idle.refresh_interval must stay under RFC 2177's 29m recommendation (got: %s)", c.Idle.RefreshInterval)
		}
	}

	return nil
}

// ConnectTimeout returns the parsed connect timeout, defaulting to 30s.
func (c *Config) ConnectTimeout() time.Duration {
	return parseOr(c.Connection.ConnectTimeout, 30*time.Second)
}

// CommandTimeout returns the parsed per-command timeout, defaulting to 1m.
func (c *Config) CommandTimeout() time.Duration {
	return parseOr(c.Connection.CommandTimeout, time.Minute)
}

// IdleRefreshInterval returns the parsed IDLE refresh interval, defaulting to 20m.
func (c *Config) IdleRefreshInterval() time.Duration {
	return parseOr(c.Idle.RefreshInterval, 20*time.Minute)
}

// IdlePollInterval returns the parsed polling fallback interval, defaulting to 30s.
func (c *Config) IdlePollInterval() time.Duration {
	return parseOr(c.Idle.PollInterval, 30*time.Second)
}

func parseOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
