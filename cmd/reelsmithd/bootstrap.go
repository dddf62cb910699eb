package main

import (
	"fmt"
	"log/slog"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/daemon"
	"reelsmith/internal/history"
	"reelsmith/internal/logging"
	"reelsmith/internal/serializer"
	"reelsmith/internal/services/genai"
	"reelsmith/internal/sheetlog"
	"reelsmith/internal/studio"
)

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: []string{"stderr", cfg.LogFilePath()},
	})
}

// buildDaemon wires the full service stack: history store, upstream
// client, serializer, studio, and sheet log.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	client := genai.New(genai.Settings{
		APIKey:     cfg.GenAI.APIKey,
		BaseURL:    cfg.GenAI.BaseURL,
		Model:      cfg.GenAI.Model,
		ImageModel: cfg.GenAI.ImageModel,
		Referer:    cfg.GenAI.Referer,
		Title:      cfg.GenAI.Title,
		Timeout:    time.Duration(cfg.GenAI.TimeoutSeconds) * time.Second,
	}, logger)

	queue := serializer.New(cfg.Cooldown(), serializer.WithLogger(logger))
	sheets := sheetlog.NewService(cfg)
	studioSvc := studio.NewService(cfg, client, store, sheets, queue, logger)

	d, err := daemon.New(cfg, store, studioSvc, queue, sheets, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}
