package history

import (
	"strings"
	"time"
)

// Kind identifies which studio operation produced a record.
type Kind string

const (
	KindIdea       Kind = "idea"
	KindScript     Kind = "script"
	KindImage      Kind = "image"
	KindAssessment Kind = "assessment"
	KindPlan       Kind = "plan"
)

var allKinds = []Kind{KindIdea, KindScript, KindImage, KindAssessment, KindPlan}

// ParseKind normalizes a user-supplied kind string.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Status represents the lifecycle of a generation request.
type Status string

const (
	// StatusPending means the request is queued behind the serializer.
	StatusPending Status = "pending"
	// StatusRunning means the upstream call is in flight.
	StatusRunning Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is one generation request persisted in SQLite.
type Record struct {
	ID     string
	Kind   Kind
	Status Status
	// Prompt is the user input that drove the request, trimmed for display.
	Prompt string
	Model  string
	// ResultJSON holds the structured result for completed text requests.
	ResultJSON string
	// AssetPath points at the stored file for image requests.
	AssetPath     string
	ErrorCategory string
	ErrorMessage  string
	// Duration is how long the upstream call ran. Zero until the
	// record reaches a terminal state.
	Duration  time.Duration
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary aggregates record counts per lifecycle state.
type Summary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}
