package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/daemon"
	"reelsmith/internal/history"
	"reelsmith/internal/ipc"
	"reelsmith/internal/serializer"
	"reelsmith/internal/sheetlog"
	"reelsmith/internal/studio"
	"reelsmith/internal/testsupport"
)

func startTestDaemon(t *testing.T, gen *testsupport.ScriptedGenerator) string {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	queue := serializer.New(cfg.Cooldown())
	sheets := sheetlog.NewService(cfg)
	studioSvc := studio.NewService(cfg, gen, store, sheets, queue, nil)
	d, err := daemon.New(cfg, store, studioSvc, queue, sheets, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	server, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, d, nil)
	if err != nil {
		t.Fatalf("new ipc server: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	return cfg.Paths.SocketPath
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REELSMITH_API_KEY", "test")

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// chatUpstream fakes the chat-completions endpoint with a fixed reply.
func chatUpstream(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(reply)
	}))
}

// writeOneShotConfig points every path at a temp dir and the upstream
// at the fake server; the socket path does not exist so commands take
// the in-process path.
func writeOneShotConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	contents := fmt.Sprintf(`
[paths]
state_dir = %q
assets_dir = %q
log_dir = %q
socket_path = %q

[genai]
api_key = "test"
base_url = %q

[serializer]
cooldown_seconds = 1
`, filepath.Join(dir, "state"), filepath.Join(dir, "assets"), filepath.Join(dir, "logs"),
		filepath.Join(dir, "daemon.sock"), baseURL)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestIdeasCommandRunsOneShotWithoutDaemon(t *testing.T) {
	server := chatUpstream(t, `{"ideas":[{"title":"Harbor Light","hook":"He never left.","outline":"o"}]}`)
	defer server.Close()
	cfgPath := writeOneShotConfig(t, server.URL)

	stdout, _, err := runCommand(t, "--config", cfgPath, "ideas", "lighthouses")
	if err != nil {
		t.Fatalf("one-shot ideas command: %v", err)
	}
	if !strings.Contains(stdout, "Harbor Light") {
		t.Fatalf("expected idea title in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Request ") {
		t.Fatalf("expected request id in output:\n%s", stdout)
	}
}

func TestHistoryFallsBackToStoreWithoutDaemon(t *testing.T) {
	server := chatUpstream(t, `{"ideas":[{"title":"One","hook":"h","outline":"o"}]}`)
	defer server.Close()
	cfgPath := writeOneShotConfig(t, server.URL)

	if _, _, err := runCommand(t, "--config", cfgPath, "ideas", "lighthouses"); err != nil {
		t.Fatalf("seed one-shot request: %v", err)
	}

	stdout, _, err := runCommand(t, "--config", cfgPath, "history", "list")
	if err != nil {
		t.Fatalf("history list without daemon: %v", err)
	}
	if !strings.Contains(stdout, "completed") {
		t.Fatalf("expected completed record in listing:\n%s", stdout)
	}

	stdout, _, err = runCommand(t, "--config", cfgPath, "history", "clear")
	if err != nil {
		t.Fatalf("history clear without daemon: %v", err)
	}
	if !strings.Contains(stdout, "Removed 1") {
		t.Fatalf("unexpected clear output:\n%s", stdout)
	}
}

func TestStatusCommandRendersTable(t *testing.T) {
	socket := startTestDaemon(t, &testsupport.ScriptedGenerator{})

	stdout, _, err := runCommand(t, "--socket", socket, "status")
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(stdout, "Running") || !strings.Contains(stdout, "yes") {
		t.Fatalf("unexpected status output:\n%s", stdout)
	}
}

func TestIdeasCommandPrintsResults(t *testing.T) {
	gen := &testsupport.ScriptedGenerator{Replies: []string{
		`{"ideas":[{"title":"The Last Keeper","hook":"He never left.","outline":"o"}]}`,
	}}
	socket := startTestDaemon(t, gen)

	stdout, _, err := runCommand(t, "--socket", socket, "ideas", "lighthouses")
	if err != nil {
		t.Fatalf("ideas command: %v", err)
	}
	if !strings.Contains(stdout, "The Last Keeper") {
		t.Fatalf("expected idea title in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Request ") {
		t.Fatalf("expected request id in output:\n%s", stdout)
	}
}

func TestIdeasCommandReportsClassifiedFailure(t *testing.T) {
	gen := &testsupport.ScriptedGenerator{}
	socket := startTestDaemon(t, gen)

	// No scripted reply makes the generator fail with a malformed error.
	stdout, stderr, err := runCommand(t, "--socket", socket, "ideas", "lighthouses")
	if err == nil {
		t.Fatalf("expected non-nil error, stdout:\n%s", stdout)
	}
	if !strings.Contains(stderr, "unusable response") {
		t.Fatalf("expected category message on stderr:\n%s", stderr)
	}
}

func TestHistoryListAndClear(t *testing.T) {
	gen := &testsupport.ScriptedGenerator{Replies: []string{
		`{"ideas":[{"title":"One","hook":"h","outline":"o"}]}`,
	}}
	socket := startTestDaemon(t, gen)

	if _, _, err := runCommand(t, "--socket", socket, "ideas", "lighthouses"); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	stdout, _, err := runCommand(t, "--socket", socket, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(stdout, "completed") {
		t.Fatalf("expected completed record in listing:\n%s", stdout)
	}

	stdout, _, err = runCommand(t, "--socket", socket, "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(stdout, "Removed 1") {
		t.Fatalf("unexpected clear output:\n%s", stdout)
	}
}

func TestTestSheetLogCommandWithoutWebhook(t *testing.T) {
	socket := startTestDaemon(t, &testsupport.ScriptedGenerator{})

	stdout, _, err := runCommand(t, "--socket", socket, "test-sheetlog")
	if err != nil {
		t.Fatalf("test-sheetlog: %v", err)
	}
	if !strings.Contains(stdout, "not configured") {
		t.Fatalf("expected not-configured message:\n%s", stdout)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only"}},
		[]columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") {
		t.Fatalf("expected cell content in table:\n%s", out)
	}
}

func TestRenderStatusLineWithoutColor(t *testing.T) {
	line := renderStatusLine("Validation", statusOK, "configuration valid", false)
	if line != "Validation:  [OK] configuration valid" {
		t.Fatalf("unexpected status line %q", line)
	}
	colored := renderStatusLine("Generation", statusError, "boom", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 48); got != "short" {
		t.Fatalf("short values must pass through, got %q", got)
	}
	long := strings.Repeat("x", 60)
	got := truncateCell(long, 48)
	if len(got) != 48 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation %q (len %d)", got, len(got))
	}
}
