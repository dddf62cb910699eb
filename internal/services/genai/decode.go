package genai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModelJSON unmarshals a model reply into out. Models sometimes
// wrap JSON in markdown code fences even in JSON mode, so fences are
// stripped before decoding.
func DecodeModelJSON(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty content")
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
