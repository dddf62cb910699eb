package ipc

import "reelsmith/internal/api"

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse carries daemon runtime information.
type StatusResponse struct {
	Status api.DaemonStatus `json:"status"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// HistoryListRequest asks for recent generation requests.
type HistoryListRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// HistoryListResponse carries generation request records.
type HistoryListResponse struct {
	Requests []api.RequestRecord `json:"requests"`
}

// HistoryDescribeRequest asks for one generation request by id.
type HistoryDescribeRequest struct {
	ID string `json:"id"`
}

// HistoryDescribeResponse carries one generation request.
type HistoryDescribeResponse struct {
	Request api.RequestRecord `json:"request"`
}

// HistoryClearRequest asks to remove terminal records.
type HistoryClearRequest struct{}

// HistoryClearResponse reports how many records were removed.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// HistoryClearFailedRequest asks to remove failed records only.
type HistoryClearFailedRequest struct{}

// HistoryClearFailedResponse reports how many records were removed.
type HistoryClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// TestSheetLogRequest asks the daemon to post a test row.
type TestSheetLogRequest struct{}

// TestSheetLogResponse reports the outcome of the test row.
type TestSheetLogResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// IdeasRequest asks the daemon to brainstorm video concepts.
type IdeasRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count,omitempty"`
}

// GenerationResponse carries any generation result as JSON along with
// the classified failure, if the request failed.
type GenerationResponse struct {
	RequestID  string `json:"request_id"`
	ResultJSON string `json:"result_json,omitempty"`
	Failed     bool   `json:"failed"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ScriptRequest asks the daemon to draft a script.
type ScriptRequest struct {
	Idea            string `json:"idea"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Tone            string `json:"tone,omitempty"`
}

// ImageRequest asks the daemon to generate a still image.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

// AssessRequest asks the daemon to critique described media.
type AssessRequest struct {
	Description string `json:"description"`
}

// PlanRequest asks the daemon to plan an edit.
type PlanRequest struct {
	Script string   `json:"script"`
	Assets []string `json:"assets,omitempty"`
}
