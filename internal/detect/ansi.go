package detect

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes terminal escape sequences (CSI, OSC, DCS, ...) from
// text. Printable text and control characters such as newlines are kept.
func StripANSI(text string) string {
	if !strings.Contains(text, "\x1b") {
		return text
	}
	return ansi.Strip(text)
}

var assistantIndicators = []string{"claude", "anthropic", "claude-code", "claudecode"}

// IsAssistantSource reports whether a terminal or document name looks like
// it belongs to the coding assistant.
func IsAssistantSource(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range assistantIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
