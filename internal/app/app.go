// Package app provides the application initialization and lifecycle management
package app

import (
	"fmt"
	"os"

	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/openrouter"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
	"github.com/urfave/cli/v2"
)

// App represents the application instance with its dependencies
type App struct {
	Config      *config.Config
	Logger      *loggy.Logger
	GitHub      *github.Client
	Completion  *openrouter.Client
	Review      *review.Service
	Diagnostics []config.Diagnostic
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
		"config_dir", cfg.ConfigDir(),
	)

	app, err := initServices(cfg, loggy.GetGlobalLogger())
	if err != nil {
		return nil, err
	}

	for _, d := range app.Diagnostics {
		loggy.Warn("Configuration diagnostic", "field", d.Field, "severity", d.Severity, "message", d.Message)
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "", false)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices wires the clients and services for cfg
func initServices(cfg *config.Config, logger *loggy.Logger) (*App, error) {
	githubClient, err := github.NewClient(cfg.GitHub, logger.With("component", "github"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	completion := openrouter.NewClient(cfg.OpenRouter, logger.With("component", "openrouter"))
	reviewService := review.NewService(completion, cfg.Review, logger.With("component", "review"))

	return &App{
		Config:      cfg,
		Logger:      logger,
		GitHub:      githubClient,
		Completion:  completion,
		Review:      reviewService,
		Diagnostics: cfg.Diagnostics(),
	}, nil
}

// NewSession starts a workspace session backed by the app's clients
func (app *App) NewSession() *workspace.Session {
	return workspace.NewSession(app.GitHub, app.Review, app.Logger)
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")
	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
