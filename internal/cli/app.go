package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shaneholloman/qmd/internal/config"
	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/storage"
)

// app bundles the dependencies every subcommand needs. Stdout is reserved
// for command output, so the logger always writes to stderr.
type app struct {
	cfg    *config.Config
	store  storage.Storage
	pool   *embedder.Pool
	logger *zap.Logger
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := cfg.EnsureDBDir(); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		if cfg.Embedding.Provider == "" {
			return embedder.NewFromEnv()
		}
		return embedder.New(embedder.Config{
			Provider: cfg.Embedding.Provider,
			Model:    cfg.Embedding.Model,
		})
	})

	return &app{cfg: cfg, store: store, pool: pool, logger: logger}, nil
}

func (a *app) Close() {
	_ = a.pool.Close()
	_ = a.store.Close()
	_ = a.logger.Sync()
}

func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
