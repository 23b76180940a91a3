package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/backends"
	"github.com/dyluth/classify/internal/classifier"
	"github.com/dyluth/classify/internal/config"
	"github.com/dyluth/classify/internal/fetcher"
	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/query"
)

// app is everything a command needs, wired from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	backends *backends.Backends
	engine   *orchestrator.Engine
	query    *query.Service
}

// loadConfig reads .env, classify.yml and the environment, in that order of
// increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, printer.Error("failed to load env file", err.Error(), nil)
	}

	// An explicit --config must exist; the default file is optional
	cfg, err := config.Load(configPath, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{"Create a default configuration:\n  classify init", "Check environment variables such as STORAGE_TYPE and REDIS_URL"},
		)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, printer.Error("invalid log level", err.Error(), []string{"Valid levels: debug, info, warn, error"})
	}
	return logging.New(cmd.ErrOrStderr(), level, logging.Format(cfg.Logging.Format)), nil
}

// openApp connects to the configured backends and builds the engine and
// query service. The caller must Close the app.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	b, err := backends.Open(ctx, cfg, logger)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"storage unavailable",
			err.Error(),
			map[string]string{
				"Content storage": cfg.Storage.Type,
				"Redis":           cfg.TagStorage.RedisURL,
			},
			[]string{"Start Redis:\n  docker run -d -p 6379:6379 redis:7-alpine", "Point REDIS_URL at a reachable server"},
		)
	}

	clf, err := newClassifier(cfg, logger)
	if err != nil {
		b.Close()
		return nil, printer.Error("invalid classifier configuration", err.Error(), nil)
	}

	engine := orchestrator.NewEngine(b.Content, b.Tags, fetcher.New(), clf, orchestrator.Options{
		MaxPromptLength:  cfg.Classifier.MaxPromptLength,
		DetectDuplicates: *cfg.Classifier.DetectDuplicates,
		Logger:           logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		backends: b,
		engine:   engine,
		query:    query.NewService(b.Content, b.Tags, logger),
	}, nil
}

func newClassifier(cfg *config.Config, logger *slog.Logger) (classifier.Classifier, error) {
	typ, err := classifier.ParseType(cfg.Classifier.Type)
	if err != nil {
		return nil, err
	}
	return classifier.New(classifier.Config{
		Type:              typ,
		AnthropicAPIKey:   cfg.Classifier.AnthropicAPIKey,
		ClaudeModel:       cfg.Classifier.ClaudeModel,
		OpenAIAPIKey:      cfg.Classifier.OpenAIAPIKey,
		OpenAIModel:       cfg.Classifier.OpenAIModel,
		BaseURL:           cfg.Classifier.BaseURL,
		Timeout:           cfg.Classifier.Timeout,
		RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
		Burst:             cfg.Classifier.Burst,
	}, logger)
}

func (a *app) Close() {
	if err := a.backends.Close(); err != nil {
		a.logger.Warn("failed to close backends", "error", err)
	}
}
