package main

import (
	"fmt"
	"log/slog"

	"github.com/routecue/waypointd/internal/config"
	"github.com/routecue/waypointd/internal/storage"
)

func initStorage(cfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	logger.Debug("Initializing storage", "type", cfg.Type)

	backend, err := storage.NewBackend(cfg, storage.Dependencies{Logger: logger})
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "error", err)
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	logger.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}
