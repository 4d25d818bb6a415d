package llmjson

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain JSON", `[{"index": 0}]`, `[{"index": 0}]`},
		{"json code fence", "```json\n[{\"index\": 0}]\n```", `[{"index": 0}]`},
		{"plain code fence", "```\n[{\"index\": 0}]\n```", `[{"index": 0}]`},
		{"surrounding whitespace", "  \n\n```json\n[{\"start\": 0}]\n```\n\n  ", `[{"start": 0}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii", "abcdef", 3, "abc..."},
		// each CJK rune is three bytes; 4 bytes fits one whole rune
		{"cjk mid-rune", "你好世界", 4, "你..."},
		{"cjk on boundary", "你好世界", 6, "你好..."},
		{"shorter than first rune", "你好", 2, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.input, tt.maxLen)
			}
		})
	}
}

func TestTruncateLongCJKReply(t *testing.T) {
	reply := strings.Repeat("字幕", 200)
	got := Truncate(reply, 200)
	if !utf8.ValidString(got) {
		t.Fatal("truncated reply is not valid UTF-8")
	}
	if len(got) > 200+len("...") {
		t.Errorf("len = %d, want at most %d", len(got), 203)
	}
}
