package main

import (
	"context"
	"fmt"
	"time"

	"reelsmith/internal/history"
	"reelsmith/internal/ipc"
	"reelsmith/internal/serializer"
	"reelsmith/internal/services/genai"
	"reelsmith/internal/sheetlog"
	"reelsmith/internal/studio"
)

// generate prefers the daemon, whose serializer owns the shared quota
// slot across clients, and falls back to a one-shot in-process stack
// when no daemon is running.
func (c *commandContext) generate(
	viaDaemon func(*ipc.Client) (*ipc.GenerationResponse, error),
	direct func(context.Context, *studio.Service) (any, error),
) (*ipc.GenerationResponse, error) {
	client, err := c.dialOptional()
	if err != nil {
		return nil, err
	}
	if client != nil {
		defer client.Close()
		return viaDaemon(client)
	}
	return c.withStudio(direct)
}

// withStudio builds the full in-process stack for a single operation:
// config, history store, upstream client, serializer, and sheet log.
// The serializer still paces the call, so a one-shot run pays the same
// cooldown discipline a daemon would.
func (c *commandContext) withStudio(direct func(context.Context, *studio.Service) (any, error)) (*ipc.GenerationResponse, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	client := genai.New(genai.Settings{
		APIKey:     cfg.GenAI.APIKey,
		BaseURL:    cfg.GenAI.BaseURL,
		Model:      cfg.GenAI.Model,
		ImageModel: cfg.GenAI.ImageModel,
		Referer:    cfg.GenAI.Referer,
		Title:      cfg.GenAI.Title,
		Timeout:    time.Duration(cfg.GenAI.TimeoutSeconds) * time.Second,
	}, nil)

	queue := serializer.New(cfg.Cooldown())
	defer queue.Close()
	svc := studio.NewService(cfg, client, store, sheetlog.NewService(cfg), queue, nil)

	result, runErr := direct(context.Background(), svc)

	var resp ipc.GenerationResponse
	if err := ipc.FillGeneration(&resp, result, runErr); err != nil {
		return nil, err
	}
	return &resp, nil
}

// withHistory runs against the daemon when one is reachable and
// otherwise opens the store directly.
func (c *commandContext) withHistory(
	viaDaemon func(*ipc.Client) error,
	direct func(context.Context, *history.Store) error,
) error {
	client, err := c.dialOptional()
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
		return viaDaemon(client)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()
	return direct(context.Background(), store)
}

// listRecords mirrors the daemon's history listing for the direct path.
func listRecords(ctx context.Context, store *history.Store, status string, limit int) ([]*history.Record, error) {
	if status != "" {
		return store.ListByStatus(ctx, history.Status(status))
	}
	return store.List(ctx, limit)
}
