package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/claudeflow/internal/event"
)

var (
	startedColor   = lipgloss.Color("#60A5FA") // Blue
	completedColor = lipgloss.Color("#10B981") // Green
	attentionColor = lipgloss.Color("#F59E0B") // Amber
	idleColor      = lipgloss.Color("#A78BFA") // Purple
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray

	timeStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	sourceStyle  = lipgloss.NewStyle().Foreground(mutedColor).Width(24)
	labelStyle   = lipgloss.NewStyle().Width(20)
	headingStyle = lipgloss.NewStyle().Bold(true)
)

// kindStyle colors an event kind column.
func kindStyle(kind event.Kind) lipgloss.Style {
	style := lipgloss.NewStyle().Width(18)
	switch kind {
	case event.TaskStarted:
		return style.Foreground(startedColor)
	case event.TaskCompleted:
		return style.Foreground(completedColor)
	case event.AttentionRequired:
		return style.Foreground(attentionColor).Bold(true)
	case event.Idle:
		return style.Foreground(idleColor)
	default:
		return style
	}
}
