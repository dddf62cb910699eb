package genai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Category is a stable user-facing failure classification.
type Category string

const (
	// CategoryQuota marks rate-limit and quota exhaustion failures.
	CategoryQuota Category = "quota"
	// CategoryAuth marks rejected or missing credentials.
	CategoryAuth Category = "auth"
	// CategoryBlocked marks safety refusals from the model.
	CategoryBlocked Category = "blocked"
	// CategoryInvalid marks request-shape problems (4xx other than auth/quota).
	CategoryInvalid Category = "invalid"
	// CategoryUpstream marks 5xx service failures.
	CategoryUpstream Category = "upstream"
	// CategoryNetwork marks transport errors and timeouts.
	CategoryNetwork Category = "network"
	// CategoryMalformed marks undecodable or empty upstream payloads.
	CategoryMalformed Category = "malformed"
)

// UserMessage returns the message shown to end users for a category.
func (c Category) UserMessage() string {
	switch c {
	case CategoryQuota:
		return "The service quota is exhausted. Wait a minute and try again."
	case CategoryAuth:
		return "The API key was rejected. Check the genai.api_key setting."
	case CategoryBlocked:
		return "The request was declined by the model's safety filters. Rephrase and try again."
	case CategoryInvalid:
		return "The request was rejected by the service. Adjust the input and try again."
	case CategoryUpstream:
		return "The service reported an internal error. Try again later."
	case CategoryNetwork:
		return "Could not reach the service. Check the network connection and try again."
	case CategoryMalformed:
		return "The service returned an unusable response. Try again."
	default:
		return "The request failed. Try again."
	}
}

// UpstreamError describes a classified failure from the generative-AI
// service.
type UpstreamError struct {
	Category   Category
	StatusCode int
	Message    string
	// RetryAfter carries the service's wait hint on quota errors. It is
	// informational only; nothing retries automatically.
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("genai: %s: http %d: %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("genai: %s: %s", e.Category, e.Message)
}

// Classify maps any error from this package (wrapped or not) to a
// user-facing category. Unknown errors classify as network when they
// look like transport failures and upstream otherwise.
func Classify(err error) Category {
	if err == nil {
		return ""
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}
	if errors.Is(err, context.Canceled) {
		return CategoryNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CategoryNetwork
	}

	return CategoryUpstream
}

// RetryAfter extracts the quota wait hint from a classified error, or
// zero when none applies.
func RetryAfter(err error) time.Duration {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.RetryAfter
	}
	return 0
}

func classifyStatus(status int, body string, retryAfter time.Duration) *UpstreamError {
	message := strings.TrimSpace(body)
	const limit = 200
	if len(message) > limit {
		message = message[:limit] + "..."
	}

	category := CategoryUpstream
	switch {
	case status == 429:
		category = CategoryQuota
	case status == 401 || status == 403:
		category = CategoryAuth
	case status >= 400 && status < 500:
		category = CategoryInvalid
	}
	// Some providers word quota exhaustion as a 403; trust the body.
	if category != CategoryQuota && looksLikeQuota(message) {
		category = CategoryQuota
	}
	return &UpstreamError{
		Category:   category,
		StatusCode: status,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

func looksLikeQuota(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range []string{"quota", "rate limit", "rate-limit", "too many requests"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func blockedError(refusal string) *UpstreamError {
	return &UpstreamError{
		Category: CategoryBlocked,
		Message:  strings.TrimSpace(refusal),
	}
}

func malformedError(detail string) *UpstreamError {
	return &UpstreamError{
		Category: CategoryMalformed,
		Message:  strings.TrimSpace(detail),
	}
}
