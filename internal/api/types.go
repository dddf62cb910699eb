package api

// RequestRecord is the wire representation of one generation request.
type RequestRecord struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	ResultJSON    string `json:"result_json,omitempty"`
	AssetPath     string `json:"asset_path,omitempty"`
	ErrorCategory string `json:"error_category,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	DurationMS    int64  `json:"duration_ms,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// DaemonStatus summarizes daemon runtime state for clients.
type DaemonStatus struct {
	Running         bool   `json:"running"`
	PID             int    `json:"pid"`
	QueueDepth      int    `json:"queue_depth"`
	Busy            bool   `json:"busy"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	HistoryDBPath   string `json:"history_db_path"`
	LockFilePath    string `json:"lock_file_path"`
	Pending         int    `json:"pending"`
	Active          int    `json:"active"`
	Completed       int    `json:"completed"`
	Failed          int    `json:"failed"`
}

// ErrorResponse is the uniform error envelope for the HTTP API.
type ErrorResponse struct {
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}
