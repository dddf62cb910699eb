package api

import (
	"time"

	"reelsmith/internal/history"
)

// FromRecord converts a history record to its wire representation.
func FromRecord(record *history.Record) RequestRecord {
	if record == nil {
		return RequestRecord{}
	}
	return RequestRecord{
		ID:            record.ID,
		Kind:          string(record.Kind),
		Status:        string(record.Status),
		Prompt:        record.Prompt,
		Model:         record.Model,
		ResultJSON:    record.ResultJSON,
		AssetPath:     record.AssetPath,
		ErrorCategory: record.ErrorCategory,
		ErrorMessage:  record.ErrorMessage,
		DurationMS:    record.Duration.Milliseconds(),
		CreatedAt:     formatTime(record.CreatedAt),
		UpdatedAt:     formatTime(record.UpdatedAt),
	}
}

// FromRecords converts a slice of history records, skipping nils.
func FromRecords(records []*history.Record) []RequestRecord {
	out := make([]RequestRecord, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out = append(out, FromRecord(record))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
