package tui

import "github.com/charmbracelet/lipgloss"

// Fixed palette shared by the shell, the progress view and the summary.
var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

var errorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)

// Fatal renders a message for the blocking startup notice.
func Fatal(msg string) string {
	return errorStyle.Render("ocrdrop: " + msg)
}
