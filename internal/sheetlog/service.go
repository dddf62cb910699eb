// Package sheetlog posts generation outcomes to a spreadsheet webhook.
// Logging is best effort: a webhook failure is logged and swallowed, it
// never fails the generation that triggered it.
package sheetlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/history"
)

const userAgent = "Reelsmith/0.1.0"

// Entry is one spreadsheet row.
type Entry struct {
	RequestID     string `json:"request_id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	ErrorCategory string `json:"error_category,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	Timestamp     string `json:"timestamp"`
}

// Service defines the spreadsheet-logging surface exposed to the studio.
type Service interface {
	LogOutcome(ctx context.Context, record *history.Record) error
	TestEntry(ctx context.Context) error
}

// NewService builds a sheet-logging service backed by the configured
// webhook. When no webhook is configured, a noop implementation is
// returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.SheetLog.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.SheetLog.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (w *webhookService) LogOutcome(ctx context.Context, record *history.Record) error {
	if record == nil {
		return nil
	}
	return w.send(ctx, Entry{
		RequestID:     record.ID,
		Kind:          string(record.Kind),
		Status:        string(record.Status),
		Prompt:        truncate(record.Prompt, 500),
		Model:         record.Model,
		ErrorCategory: record.ErrorCategory,
		ErrorMessage:  truncate(record.ErrorMessage, 500),
		DurationMS:    record.Duration.Milliseconds(),
		Timestamp:     record.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (w *webhookService) TestEntry(ctx context.Context) error {
	return w.send(ctx, Entry{
		Kind:      "test",
		Status:    "completed",
		Prompt:    "sheet log connectivity test",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (w *webhookService) send(ctx context.Context, entry Entry) error {
	if w == nil || w.client == nil {
		return nil
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal sheet entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sheet entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheet webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

type noopService struct{}

func (noopService) LogOutcome(context.Context, *history.Record) error { return nil }
func (noopService) TestEntry(context.Context) error                   { return nil }
