package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("REELSMITH_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	path := writeConfig(t, `
[genai]
api_key = "secret"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.GenAI.Model == "" {
		t.Fatal("expected default model")
	}
	if cfg.Serializer.CooldownSeconds != 65 {
		t.Fatalf("expected default cooldown 65, got %d", cfg.Serializer.CooldownSeconds)
	}
	if cfg.Cooldown() != 65*time.Second {
		t.Fatalf("unexpected cooldown duration %s", cfg.Cooldown())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadExpandsPaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
state_dir = "~/reelsmith-state"

[genai]
api_key = "secret"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	if cfg.Paths.StateDir != filepath.Join(home, "reelsmith-state") {
		t.Fatalf("expected expanded state dir, got %q", cfg.Paths.StateDir)
	}
	if !filepath.IsAbs(cfg.Paths.SocketPath) {
		t.Fatalf("expected absolute socket path, got %q", cfg.Paths.SocketPath)
	}
	if cfg.HistoryDBPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history db path %q", cfg.HistoryDBPath())
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("REELSMITH_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	path := writeConfig(t, `
[genai]
model = "demo"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "genai.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadReadsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("REELSMITH_API_KEY", "env-secret")
	path := writeConfig(t, "")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GenAI.APIKey != "env-secret" {
		t.Fatalf("expected api key from env, got %q", cfg.GenAI.APIKey)
	}
}

func TestLoadRejectsBadCooldown(t *testing.T) {
	path := writeConfig(t, `
[genai]
api_key = "secret"

[serializer]
cooldown_seconds = -5
`)

	cfg, _, _, err := config.Load(path)
	// Negative values normalize back to the default rather than failing.
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Serializer.CooldownSeconds != 65 {
		t.Fatalf("expected normalized cooldown, got %d", cfg.Serializer.CooldownSeconds)
	}
}

func TestLoadRejectsBadWebhookURL(t *testing.T) {
	path := writeConfig(t, `
[genai]
api_key = "secret"

[sheetlog]
webhook_url = "ftp://example.com/sheet"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "sheetlog.webhook_url") {
		t.Fatalf("expected webhook url error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormatGracefully(t *testing.T) {
	path := writeConfig(t, `
[genai]
api_key = "secret"

[logging]
format = "weird"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected fallback to console, got %q", cfg.Logging.Format)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[serializer]") {
		t.Fatal("sample config missing serializer section")
	}
}
