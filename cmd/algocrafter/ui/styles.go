package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6b7787")
	destructive = lipgloss.Color("#e53935")
	info        = lipgloss.Color("#2196F3")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	errorStyle    = lipgloss.NewStyle().Foreground(destructive)
	flashStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(info).
			Padding(0, 1)
	frameStyle = lipgloss.NewStyle().Padding(1, 2)
)

func cursorLine(selected bool, text string) string {
	if selected {
		return selectedStyle.Render("> " + text)
	}
	return "  " + text
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// moveCursor keeps the cursor inside [0, n).
func moveCursor(cur, delta, n int) int {
	if n == 0 {
		return 0
	}
	cur += delta
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
