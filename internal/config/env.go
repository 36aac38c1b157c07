package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDirName is the configuration directory created under the user's home
const DefaultDirName = ".reviewstack"

// DefaultConfigDir returns ~/.reviewstack
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultDirName), nil
}

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for default)
// - isInitializing: Whether this is being called from the init command, in which case validation is skipped
func LoadFromEnv(configDir string, configFilePath string, isInitializing bool) (*Config, error) {
	cfg := New()

	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	cfg.configDir = configDir

	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// ENV_FILE_PATH overrides both the config directory and the current directory
	if envFilePath := getEnvString("ENV_FILE_PATH", ""); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else if err := godotenv.Load(configFilePath); err != nil {
		_ = godotenv.Load() // Ignore errors if file doesn't exist
	}

	cfg.GitHub = GitHubConfig{
		Token:  getEnvFirst("", "REVIEWSTACK_GITHUB_TOKEN", "GITHUB_TOKEN"),
		APIURL: getEnvString("REVIEWSTACK_GITHUB_API_URL", "https://api.github.com/"),
	}

	cfg.OpenRouter = OpenRouterConfig{
		APIKey:            getEnvFirst("", "REVIEWSTACK_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"),
		BaseURL:           getEnvString("REVIEWSTACK_OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:             getEnvString("REVIEWSTACK_OPENROUTER_MODEL", "meta-llama/llama-3.3-8b-instruct:free"),
		Referer:           getEnvString("REVIEWSTACK_OPENROUTER_REFERER", "https://reviewstack.dev"),
		Title:             getEnvString("REVIEWSTACK_OPENROUTER_TITLE", "ReviewStack"),
		Timeout:           getEnvDuration("REVIEWSTACK_OPENROUTER_TIMEOUT", 0),
		RequestsPerMinute: getEnvInt("REVIEWSTACK_OPENROUTER_REQUESTS_PER_MINUTE", 20),
		BurstLimit:        getEnvInt("REVIEWSTACK_OPENROUTER_BURST", 2),
	}

	cfg.Review = ReviewConfig{
		Temperature:    getEnvFloat("REVIEWSTACK_REVIEW_TEMPERATURE", 0.3),
		MaxTokens:      getEnvInt("REVIEWSTACK_REVIEW_MAX_TOKENS", 1800),
		FixTemperature: getEnvFloat("REVIEWSTACK_FIX_TEMPERATURE", 0.1),
		FixMaxTokens:   getEnvInt("REVIEWSTACK_FIX_MAX_TOKENS", 1000),
		Concurrency:    getEnvInt("REVIEWSTACK_REVIEW_CONCURRENCY", 2),
	}

	cfg.Server = ServerConfig{
		Addr:           getEnvString("REVIEWSTACK_SERVER_ADDR", ":8080"),
		RequestTimeout: getEnvDuration("REVIEWSTACK_SERVER_REQUEST_TIMEOUT", 60*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("REVIEWSTACK_LOG_LEVEL", "info"),
		Format:     getEnvString("REVIEWSTACK_LOG_FORMAT", "text"),
		Output:     getEnvString("REVIEWSTACK_LOG_OUTPUT", filepath.Join(configDir, "reviewstack.log")),
		AddSource:  getEnvBool("REVIEWSTACK_LOG_ADD_SOURCE", true),
		TimeFormat: getTimeFormat(getEnvString("REVIEWSTACK_LOG_TIME_FORMAT", "RFC3339")),
	}

	if isInitializing {
		return cfg, nil
	}
	return cfg, cfg.Validate()
}
