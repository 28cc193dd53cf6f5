package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type fakeTable struct{}

func (fakeTable) Columns() []string { return []string{"KEY", "VERSION"} }
func (fakeTable) Rows() [][]string {
	return [][]string{
		{"api-url", "3"},
		{"timeout", "1"},
	}
}

func TestTextFormatter_Tabular(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, fakeTable{}); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "KEY") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "api-url") || !strings.Contains(lines[1], "3") {
		t.Errorf("row content wrong: %q", lines[1])
	}
}

func TestTextFormatter_Fallback(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, "pruned 4 versions"); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	if buf.String() != "pruned 4 versions\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"namespace": "payments", "version": 2}
	if err := (&JSONFormatter{}).FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["namespace"] != "payments" {
		t.Errorf("expected namespace, got %v", decoded)
	}
	if !strings.Contains(buf.String(), "  ") {
		t.Error("expected indented JSON")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format   OutputFormat
		wantJSON bool
	}{
		{format: FormatJSON, wantJSON: true},
		{format: FormatText, wantJSON: false},
		{format: OutputFormat("yaml"), wantJSON: false}, // unknown falls back to text
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, isJSON := NewFormatter(tt.format).(*JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("NewFormatter(%q) json=%v, want %v", tt.format, isJSON, tt.wantJSON)
			}
		})
	}
}
