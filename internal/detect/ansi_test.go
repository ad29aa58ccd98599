package detect

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"color", "\x1b[32mDone\x1b[0m", "Done"},
		{"bold and reset", "\x1b[1;31mError\x1b[m here", "Error here"},
		{"cursor private mode", "\x1b[?25lhidden\x1b[?25h", "hidden"},
		{"osc title", "\x1b]0;claude\x07Ready", "Ready"},
		{"keeps newlines", "\x1b[2mline one\x1b[0m\nline two", "line one\nline two"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsAssistantSource(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Claude", true},
		{"claude-code session", true},
		{"ClaudeCode", true},
		{"anthropic-cli", true},
		{"zsh", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAssistantSource(tt.name); got != tt.want {
				t.Errorf("IsAssistantSource(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
