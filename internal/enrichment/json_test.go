package enrichment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose around object", `Here you go: {"a": {"b": 2}} thanks`, `{"a": {"b": 2}}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without lang", "```\n[1, 2]\n```", `[1, 2]`},
		{"bare array", `result: [{"cv_skill": "x"}]`, `[{"cv_skill": "x"}]`},
		{"brace inside string", `{"a": "}"}`, `{"a": "}"}`},
		{"bom", "\ufeff{\"a\": 1}", `{"a": 1}`},
		{"no json", "hello", ""},
		{"unbalanced", `{"a": 1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	raw := `{"summary": "He said "hello" to me", "n": 1}`
	var out map[string]any
	assert.Error(t, json.Unmarshal([]byte(raw), &out))
	assert.NoError(t, json.Unmarshal([]byte(sanitizeJSON(raw)), &out))
	assert.Equal(t, `He said "hello" to me`, out["summary"])

	multiline := "{\"a\": \"line1\nline2\"}"
	assert.NoError(t, json.Unmarshal([]byte(sanitizeJSON(multiline)), &out))
	assert.Equal(t, "line1\nline2", out["a"])
}

func TestNormalizeAndDedupe(t *testing.T) {
	assert.Equal(t, []string{"go", "sql"}, normalizeList([]string{" Go ", "", "SQL"}))
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "b", "a"}))
}
