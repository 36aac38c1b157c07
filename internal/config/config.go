package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	GitHub     GitHubConfig
	OpenRouter OpenRouterConfig
	Review     ReviewConfig
	Server     ServerConfig
	Logging    LoggingConfig
	configDir  string // Internal: directory the config was loaded from
}

// GitHubConfig represents source host configuration
type GitHubConfig struct {
	Token  string // Personal access token, optional for public data
	APIURL string // REST API base URL; anything but api.github.com is treated as Enterprise
}

// OpenRouterConfig holds the chat-completion endpoint configuration
type OpenRouterConfig struct {
	APIKey  string        // Bearer credential
	BaseURL string        // e.g. https://openrouter.ai/api/v1
	Model   string        // Model identifier sent with each request
	Referer string        // Sent as HTTP-Referer
	Title   string        // Sent as X-Title
	Timeout time.Duration // Zero means no client-side timeout

	// Rate limiting, zero disables
	RequestsPerMinute int
	BurstLimit        int
}

// ReviewConfig holds generation parameters for reviews and fixes
type ReviewConfig struct {
	Temperature    float64
	MaxTokens      int
	FixTemperature float64
	FixMaxTokens   int
	Concurrency    int // Files reviewed in parallel by the CLI
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error, none
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// ConfigDir returns the directory the configuration was loaded from
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateGitHub(); err != nil {
		return fmt.Errorf("GitHub config: %w", err)
	}
	if err := c.validateOpenRouter(); err != nil {
		return fmt.Errorf("OpenRouter config: %w", err)
	}
	if err := c.validateReview(); err != nil {
		return fmt.Errorf("review config: %w", err)
	}
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		// Set to a very high level that won't be triggered
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}

func (c *Config) validateGitHub() error {
	if c.GitHub.APIURL == "" {
		return nil
	}
	return validateAbsoluteURL(c.GitHub.APIURL)
}

func (c *Config) validateOpenRouter() error {
	if c.OpenRouter.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if err := validateAbsoluteURL(c.OpenRouter.BaseURL); err != nil {
		return err
	}
	if c.OpenRouter.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.OpenRouter.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.OpenRouter.RequestsPerMinute < 0 || c.OpenRouter.BurstLimit < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.Temperature < 0 || c.Review.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Review.Temperature)
	}
	if c.Review.FixTemperature < 0 || c.Review.FixTemperature > 2 {
		return fmt.Errorf("fix temperature must be between 0 and 2, got %v", c.Review.FixTemperature)
	}
	if c.Review.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.Review.FixMaxTokens <= 0 {
		return fmt.Errorf("fix max_tokens must be positive")
	}
	if c.Review.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" && level != "none" {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// getEnvString returns a string from the environment variable
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvFirst returns the first non-empty value among keys
func getEnvFirst(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// getEnvInt returns an int from the environment variable
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns a bool from the environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration returns a time.Duration from the environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 from the environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getTimeFormat converts a named time format to its actual format string
func getTimeFormat(name string) string {
	switch name {
	case "RFC3339":
		return time.RFC3339
	case "RFC3339Nano":
		return time.RFC3339Nano
	case "Kitchen":
		return time.Kitchen
	case "DateTime":
		return time.DateTime
	case "Date":
		return time.DateOnly
	case "Time":
		return time.TimeOnly
	default:
		return name
	}
}
