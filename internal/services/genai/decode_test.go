package genai_test

import (
	"testing"

	"reelsmith/internal/services/genai"
)

func TestDecodeModelJSON(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"bare object", `{"ok":true}`, false},
		{"fenced", "```json\n{\"ok\":true}\n```", false},
		{"fenced without language", "```\n{\"ok\":true}\n```", false},
		{"surrounding whitespace", "  \n{\"ok\":true}\n  ", false},
		{"empty", "", true},
		{"prose", "I cannot produce JSON.", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				OK bool `json:"ok"`
			}
			err := genai.DecodeModelJSON(tc.content, &out)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.OK {
				t.Fatal("decoded value lost")
			}
		})
	}
}
