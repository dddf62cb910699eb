package main

import (
	"context"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/testsupport"
)

func TestBuildLoggerUsesConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := buildLogger(cfg)
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestBuildDaemonWiresStack(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := buildDaemon(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.HistoryDBPath != cfg.HistoryDBPath() {
		t.Fatalf("unexpected history path %q", status.HistoryDBPath)
	}
	d.Stop()
}
