package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatsPanel(),
		m.renderLogsPanel(),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	status := m.spinner.View() + " exporting"
	switch {
	case m.done && m.err != nil:
		status = errorStyle.Render("✗ stopped")
	case m.done:
		status = successStyle.Render("✓ done")
	case m.resumed:
		status = m.spinner.View() + " resuming"
	}
	return headerStyle.Render(fmt.Sprintf("stopsum feed  %s  %s", m.page, status))
}

func (m *Model) renderStatsPanel() string {
	width := max(40, m.width-4)
	title := titleStyle.Render(" EXPORT ")

	rows := []string{
		statRow("Window", fmt.Sprintf("%s → %s", formatDay(m.window.Since), formatDay(m.window.Until))),
		statRow("Reached", formatDay(m.oldest)),
		statRow("Pages", fmt.Sprintf("%d", m.pages)),
		statRow("Posts", fmt.Sprintf("%d", m.posts)),
		statRow("Rate", fmt.Sprintf("%.1f posts/min", m.Rate())),
		statRow("Elapsed", formatDuration(time.Since(m.started))),
	}
	if m.rateWaits > 0 {
		rows = append(rows, statRow("Rate limited", fmt.Sprintf("%d waits, last %s", m.rateWaits, formatDuration(m.lastWait))))
	}
	rows = append(rows, "", m.progress.View())

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderLogsPanel() string {
	width := max(40, m.width-4)
	title := titleStyle.Render(" LOG ")

	visible := 8
	if m.height > 0 {
		visible = max(3, m.height-22)
	}
	start := max(0, len(m.logMessages)-visible)

	var lines []string
	for _, msg := range m.logMessages[start:] {
		line := logTimestampStyle.Render(msg.Time.Format("15:04:05")) + " " +
			lipgloss.NewStyle().Foreground(msg.Color).Render(truncate(msg.Message, width-14))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("No messages"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderHelp() string {
	return helpStyle.Render(strings.Join([]string{
		"q / ctrl+c  stop the export and quit",
		"ctrl+l      clear the log",
		"?           toggle this help",
	}, "\n"))
}

func statRow(label, value string) string {
	return statsLabelStyle.Render(label) + statsValueStyle.Render(value)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
