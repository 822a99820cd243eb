package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stopsum/pkg/scraper"
)

// ExportStartedMsg is sent when the export begins
type ExportStartedMsg struct {
	Page    string
	Window  scraper.Window
	Resumed bool
}

// PageExportedMsg is sent after each page
type PageExportedMsg struct {
	Progress scraper.Progress
}

// RateLimitedMsg is sent after waiting on the rate limiter
type RateLimitedMsg struct {
	Wait time.Duration
}

// ExportFinishedMsg is sent when the export ends
type ExportFinishedMsg struct {
	Result *scraper.Result
	Err    error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to refresh elapsed time and rate
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(60, msg.Width-30))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.progress.Update(msg)
		if p, ok := updated.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case ExportStartedMsg:
		m.Start(msg.Page, msg.Window, msg.Resumed)
		return m, nil

	case PageExportedMsg:
		m.RecordPage(msg.Progress)
		return m, m.progress.SetPercent(m.covered)

	case RateLimitedMsg:
		m.RecordRateLimit(msg.Wait)
		return m, nil

	case ExportFinishedMsg:
		m.Finish(msg.Result, msg.Err)
		if m.quitOnFinish {
			return m, tea.Quit
		}
		return m, m.progress.SetPercent(m.covered)

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.done && m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
