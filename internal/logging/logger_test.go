package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("request queued",
		String(FieldComponent, "serializer"),
		String(FieldKind, "idea"),
		Int("depth", 3),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO serializer: request queued") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "kind=idea") || !strings.Contains(line, "depth=3") {
		t.Fatalf("missing fields in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should render as prefix, not field: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("upstream failed", String("reason", "rate limit hit"))

	line := buf.String()
	if !strings.Contains(line, `reason="rate limit hit"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	logger.Error("should appear")
	if !strings.Contains(buf.String(), "ERROR") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestConsoleHandlerWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.WithGroup("genai").With(slog.String("model", "demo")).Info("call done")

	if !strings.Contains(buf.String(), "genai.model=demo") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled at every level.
	logger.Error("ignored", Error(nil))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}
