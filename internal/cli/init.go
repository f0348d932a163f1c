// Package cli provides the initialization and command plumbing of the
// expenses binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/tracker"
)

// SetupLogger initializes structured logging at the given level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenTracker builds the configured store, loads the tracker and attaches
// the AMQP notifier when configured. cleanup releases everything opened.
func OpenTracker(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*tracker.Tracker, func(), error) {
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	res, err := factory.Create(backend.ConfigFromAppConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("create backend: %w", err)
	}

	closers := []func() error{res.Cleanup}
	opts := tracker.Options{Logger: logger}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 3)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", applog.FieldError, err)
		} else {
			closers = append(closers, client.Close)
			opts.Notifier = tracker.NotifierFunc(func(ctx context.Context, c tracker.Change) error {
				return client.PublishExpenseChange(ctx, c.ID.String(), c.Op, c.Version)
			})
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Cleanup failed", applog.FieldError, err)
			}
		}
	}
	return tracker.Open(ctx, res.Store, opts), cleanup, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
