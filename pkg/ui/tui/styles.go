package tui

import "github.com/charmbracelet/lipgloss"

// Dashboard palette. Adaptive colors keep the panels readable on light
// terminals too.
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#1877F2", Dark: "#4599FF"}
	colorFrame  = lipgloss.AdaptiveColor{Light: "#5B6B8C", Dark: "#3B4A6B"}
	colorValue  = lipgloss.AdaptiveColor{Light: "#1C1E21", Dark: "#E4E6EB"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8D91", Dark: "#8A8D91"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#2E8B3A", Dark: "#42B72A"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#B86E00", Dark: "#F7B928"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FA383E"}
)

var (
	baseStyle = lipgloss.NewStyle().Foreground(colorValue)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(1, 0, 0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorFrame).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Underline(true)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(14)

	statsValueStyle = lipgloss.NewStyle().Foreground(colorValue).Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorFail).Bold(true)

	logTimestampStyle = lipgloss.NewStyle().Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0, 0, 1)
)

func levelColor(level string) lipgloss.TerminalColor {
	switch level {
	case LevelError:
		return colorFail
	case LevelWarn:
		return colorWarn
	case LevelSuccess:
		return colorOK
	case LevelInfo:
		return colorAccent
	default:
		return colorMuted
	}
}
