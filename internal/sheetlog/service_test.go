package sheetlog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelsmith/internal/history"
	"reelsmith/internal/sheetlog"
	"reelsmith/internal/testsupport"
)

func TestLogOutcomePostsEntry(t *testing.T) {
	var got sheetlog.Entry
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode entry: %v", err)
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(server.URL))
	service := sheetlog.NewService(cfg)

	record := &history.Record{
		ID:            "req-1",
		Kind:          history.KindImage,
		Status:        history.StatusFailed,
		Prompt:        "a lighthouse at dusk",
		Model:         "test/image-model",
		ErrorCategory: "quota",
		ErrorMessage:  "rate limit exceeded",
		Duration:      2300 * time.Millisecond,
		UpdatedAt:     time.Now(),
	}
	if err := service.LogOutcome(context.Background(), record); err != nil {
		t.Fatalf("log outcome: %v", err)
	}
	if got.RequestID != "req-1" || got.Status != "failed" || got.ErrorCategory != "quota" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.DurationMS != 2300 {
		t.Fatalf("expected duration 2300ms in entry, got %d", got.DurationMS)
	}
}

func TestLogOutcomeReportsWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "script error", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithWebhook(server.URL))
	service := sheetlog.NewService(cfg)

	err := service.LogOutcome(context.Background(), &history.Record{ID: "req-2", Kind: history.KindIdea})
	if err == nil {
		t.Fatal("expected error from failing webhook")
	}
}

func TestUnconfiguredWebhookIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := sheetlog.NewService(cfg)

	if err := service.LogOutcome(context.Background(), &history.Record{ID: "req-3"}); err != nil {
		t.Fatalf("noop service should never fail: %v", err)
	}
	if err := service.TestEntry(context.Background()); err != nil {
		t.Fatalf("noop test entry should never fail: %v", err)
	}
}
