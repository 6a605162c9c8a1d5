package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main Toolsmith configuration
type Config struct {
	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Tools
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Result cache
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds gateway server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// ToolsConfig holds tool execution defaults
type ToolsConfig struct {
	WorkspaceDir   string        `json:"workspace_dir" mapstructure:"workspace_dir"`
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
	RetryAttempts  int           `json:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay" mapstructure:"retry_delay"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	MaxEntries    int           `json:"max_entries" mapstructure:"max_entries"`
	SweepSchedule string        `json:"sweep_schedule" mapstructure:"sweep_schedule"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `json:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxConcurrent     int  `json:"max_concurrent" mapstructure:"max_concurrent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
		Tools: ToolsConfig{
			DefaultTimeout: 30 * time.Second,
			RetryAttempts:  3,
			RetryDelay:     time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           time.Hour,
			MaxEntries:    1000,
			SweepSchedule: "@every 10m",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
			MaxConcurrent:     10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Validate validates the configuration and returns the full list of
// problems rather than stopping at the first one.
func (c *Config) Validate() []string {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "server port must be between 1 and 65535")
	}
	if c.Tools.DefaultTimeout <= 0 {
		errors = append(errors, "default tool timeout must be positive")
	}
	if c.Tools.RetryAttempts < 0 {
		errors = append(errors, "tool retry attempts must be non-negative")
	}
	if c.Tools.RetryDelay < 0 {
		errors = append(errors, "tool retry delay must be non-negative")
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			errors = append(errors, "cache TTL must be positive")
		}
		if c.Cache.MaxEntries < 1 {
			errors = append(errors, "cache max entries must be at least 1")
		}
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute < 1 {
			errors = append(errors, "rate limit requests per minute must be at least 1")
		}
		if c.RateLimit.MaxConcurrent < 1 {
			errors = append(errors, "rate limit max concurrent must be at least 1")
		}
	}

	return errors
}

// String returns a JSON representation with nothing sensitive to redact
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config marshal error: %v", err)
	}
	return string(data)
}
