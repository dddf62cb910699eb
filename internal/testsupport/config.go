package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.GenAI.APIKey = "test"
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.AssetsDir = filepath.Join(base, "assets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.SocketPath = filepath.Join(base, "reelsmithd.sock")
	// Tests never want to sit through the real per-call cooldown.
	cfg.Serializer.CooldownSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIToken sets the HTTP API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithWebhook sets the spreadsheet-log webhook URL on the test config.
func WithWebhook(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.SheetLog.WebhookURL = url
	}
}

// WithGenAIBaseURL points the upstream client at a test server.
func WithGenAIBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.GenAI.BaseURL = url
	}
}
