package genai_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelsmith/internal/services/genai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *genai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return genai.New(genai.Settings{
		APIKey:  "test-key",
		BaseURL: server.URL + "/api/v1",
		Model:   "test/model",
	}, nil)
}

func chatReply(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q},"finish_reason":"stop"}]}`, content)
}

func TestCompleteTextSendsAuthAndReturnsContent(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, chatReply("a fine reply"))
	})

	content, err := client.CompleteText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if content != "a fine reply" {
		t.Fatalf("unexpected content %q", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestCompleteJSONStripsCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("```json\n{\"title\":\"Dawn\"}\n```"))
	})

	var out struct {
		Title string `json:"title"`
	}
	if err := client.CompleteJSON(context.Background(), "system", "user", &out); err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if out.Title != "Dawn" {
		t.Fatalf("unexpected title %q", out.Title)
	}
}

func TestQuotaErrorCarriesRetryAfter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	})

	_, err := client.CompleteText(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := genai.Classify(err); got != genai.CategoryQuota {
		t.Fatalf("expected quota category, got %q", got)
	}
	if wait := genai.RetryAfter(err); wait != 42*time.Second {
		t.Fatalf("expected 42s retry hint, got %s", wait)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   genai.Category
	}{
		{http.StatusUnauthorized, "invalid key", genai.CategoryAuth},
		{http.StatusForbidden, "forbidden", genai.CategoryAuth},
		{http.StatusForbidden, "monthly quota exhausted", genai.CategoryQuota},
		{http.StatusBadRequest, "unknown model", genai.CategoryInvalid},
		{http.StatusBadGateway, "bad gateway", genai.CategoryUpstream},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", tc.status, tc.want), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := client.CompleteText(context.Background(), "system", "user")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := genai.Classify(err); got != tc.want {
				t.Fatalf("status %d: expected %q, got %q (%v)", tc.status, tc.want, got, err)
			}
		})
	}
}

func TestInBandErrorBodyClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":429,"message":"rate limit exceeded"}}`)
	})

	_, err := client.CompleteText(context.Background(), "system", "user")
	if got := genai.Classify(err); got != genai.CategoryQuota {
		t.Fatalf("expected quota category, got %q (%v)", got, err)
	}
}

func TestRefusalClassifiedAsBlocked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"","refusal":"cannot help with that"},"finish_reason":"stop"}]}`)
	})

	_, err := client.CompleteText(context.Background(), "system", "user")
	if got := genai.Classify(err); got != genai.CategoryBlocked {
		t.Fatalf("expected blocked category, got %q (%v)", got, err)
	}
}

func TestEmptyContentClassifiedAsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply(""))
	})

	_, err := client.CompleteText(context.Background(), "system", "user")
	if got := genai.Classify(err); got != genai.CategoryMalformed {
		t.Fatalf("expected malformed category, got %q (%v)", got, err)
	}
}

func TestGenerateImageDecodesDataURL(t *testing.T) {
	pixel := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(pixel)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":"","images":[{"image_url":{"url":"data:image/png;base64,%s"}}]},"finish_reason":"stop"}]}`, encoded)
	})

	image, err := client.GenerateImage(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if image.MIME != "image/png" {
		t.Fatalf("unexpected mime %q", image.MIME)
	}
	if len(image.Data) != len(pixel) {
		t.Fatalf("expected %d bytes, got %d", len(pixel), len(image.Data))
	}
}

func TestGenerateImageWithoutImagesIsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("no image for you"))
	})

	_, err := client.GenerateImage(context.Background(), "a lighthouse at dusk")
	if got := genai.Classify(err); got != genai.CategoryMalformed {
		t.Fatalf("expected malformed category, got %q (%v)", got, err)
	}
}

func TestTransportFailureClassifiedAsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := genai.New(genai.Settings{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test/model",
	}, nil)

	_, err := client.CompleteText(context.Background(), "system", "user")
	if got := genai.Classify(err); got != genai.CategoryNetwork {
		t.Fatalf("expected network category, got %q (%v)", got, err)
	}
}

func TestClassifyWrappedError(t *testing.T) {
	inner := &genai.UpstreamError{Category: genai.CategoryAuth, StatusCode: 401, Message: "nope"}
	wrapped := fmt.Errorf("brainstorm ideas: %w", inner)
	if got := genai.Classify(wrapped); got != genai.CategoryAuth {
		t.Fatalf("expected auth category through wrapping, got %q", got)
	}
	if genai.Classify(nil) != "" {
		t.Fatal("nil error should have empty category")
	}
	if got := genai.Classify(errors.New("mystery")); got != genai.CategoryUpstream {
		t.Fatalf("unknown errors should classify upstream, got %q", got)
	}
}
