package backend

import (
	"fmt"
	"log/slog"

	"expenses/internal/config"
	"expenses/internal/storage"
)

// Factory creates stores based on configuration
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		logger: logger,
	}
}

// Create opens the key-value backend selected by cfg and wraps it in a Store.
func (f *Factory) Create(cfg Config) (*BackendResult, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	var (
		kv  storage.KV
		err error
	)
	switch cfg.Type {
	case SQLiteBackend:
		kv, err = storage.NewSQLiteKV(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case FileBackend:
		kv, err = storage.NewFileKV(cfg.StoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Info("Initialized file backend", "path", cfg.StoreFile)
	default:
		kv = storage.NewMemoryKV()
		f.logger.Info("Initialized memory backend")
	}

	store := storage.New(kv, cfg.StoreKey, f.logger)
	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:         BackendType(appConfig.DataBackend),
		StoreKey:     appConfig.StoreKey,
		StoreFile:    appConfig.StoreFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}
}
