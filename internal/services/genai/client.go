package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/logging"
)

const defaultTimeout = 120 * time.Second

// Settings configures a Client. APIKey, BaseURL, and Model are required;
// ImageModel falls back to Model when empty.
type Settings struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	// Referer and Title identify the app to OpenRouter's leaderboard.
	// Optional.
	Referer string
	Title   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint. Each
// method issues exactly one HTTP request; callers serialize and retry.
type Client struct {
	settings   Settings
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New constructs a client. The logger may be nil.
func New(settings Settings, logger *slog.Logger, opts ...Option) *Client {
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}
	if settings.ImageModel == "" {
		settings.ImageModel = settings.Model
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: settings.Timeout},
		logger:     logging.WithComponent(logger, "genai"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured text model identifier.
func (c *Client) Model() string { return c.settings.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Modalities     []string        `json:"modalities,omitempty"`
}

type chatImage struct {
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string      `json:"content"`
			Refusal string      `json:"refusal"`
			Images  []chatImage `json:"images"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CompleteText sends one chat completion and returns the raw text reply.
func (c *Client) CompleteText(ctx context.Context, system, user string) (string, error) {
	resp, err := c.postChat(ctx, chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	return c.extractText(resp)
}

// CompleteJSON sends one chat completion in JSON mode and decodes the
// reply into out, tolerating code fences around the payload.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, out any) error {
	resp, err := c.postChat(ctx, chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return err
	}
	content, err := c.extractText(resp)
	if err != nil {
		return err
	}
	if err := DecodeModelJSON(content, out); err != nil {
		return malformedError(err.Error())
	}
	return nil
}

// Image is a generated image with its decoded bytes.
type Image struct {
	Data []byte
	MIME string
}

// GenerateImage requests one image from the configured image model. The
// response carries the image as a base64 data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := c.postChat(ctx, chatRequest{
		Model: c.settings.ImageModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, malformedError("response contained no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, blockedError(choice.Message.Refusal)
	}
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return nil, blockedError(refusal)
	}
	if len(choice.Message.Images) == 0 {
		return nil, malformedError("response contained no images")
	}
	return decodeDataURL(choice.Message.Images[0].ImageURL.URL)
}

func (c *Client) postChat(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(c.settings.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	if c.settings.Referer != "" {
		req.Header.Set("HTTP-Referer", c.settings.Referer)
	}
	if c.settings.Title != "" {
		req.Header.Set("X-Title", c.settings.Title)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{
			Category: CategoryNetwork,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{
			Category: CategoryNetwork,
			Message:  fmt.Sprintf("read response body: %v", err),
		}
	}
	c.logger.Debug("chat completion round trip",
		logging.String("model", payload.Model),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)))

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, string(raw), parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, malformedError(fmt.Sprintf("decode response: %v", err))
	}
	// Some providers report failures in-band with a 200 status.
	if decoded.Error != nil {
		status := decoded.Error.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return nil, classifyStatus(status, decoded.Error.Message, 0)
	}
	return &decoded, nil
}

func (c *Client) extractText(resp *chatResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", malformedError("response contained no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", blockedError(choice.Message.Refusal)
	}
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return "", blockedError(refusal)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", malformedError("response contained no content")
	}
	return content, nil
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
	}
	return 0
}

func decodeDataURL(dataURL string) (*Image, error) {
	const scheme = "data:"
	if !strings.HasPrefix(dataURL, scheme) {
		return nil, malformedError("image url is not a data url")
	}
	meta, encoded, ok := strings.Cut(dataURL[len(scheme):], ",")
	if !ok {
		return nil, malformedError("image data url missing payload")
	}
	mime, _, _ := strings.Cut(meta, ";")
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, malformedError(fmt.Sprintf("decode image payload: %v", err))
	}
	if len(data) == 0 {
		return nil, malformedError("image payload was empty")
	}
	return &Image{Data: data, MIME: mime}, nil
}
