package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopsum/pkg/scraper"
)

// Log levels shown in the log panel
const (
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
)

// LogMessage represents a log panel entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.TerminalColor
}

// Model is the state of the export dashboard
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	page    string
	window  scraper.Window
	resumed bool
	started time.Time

	pages        int
	posts        int
	oldest       time.Time
	covered      float64
	rateWaits    int
	lastWait     time.Duration
	result       *scraper.Result
	err          error
	done         bool
	quitOnFinish bool

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	// onQuit is called when the user quits before the export finishes
	onQuit func()
}

// NewModel creates a dashboard model
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:        s,
		progress:       p,
		started:        time.Now(),
		maxLogMessages: 50,
		quitOnFinish:   true,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Start records the beginning of an export
func (m *Model) Start(page string, window scraper.Window, resumed bool) {
	m.page = page
	m.window = window
	m.resumed = resumed
	m.started = time.Now()

	if resumed {
		m.AddLogMessage(LevelInfo, "Resuming export of "+page)
	} else {
		m.AddLogMessage(LevelInfo, "Exporting "+page)
	}
}

// RecordPage applies the progress of a finished page
func (m *Model) RecordPage(p scraper.Progress) {
	m.pages = p.Pages
	m.posts = p.Posts
	m.oldest = p.Oldest
	m.covered = p.Covered()
}

// RecordRateLimit counts a rate limiter wait
func (m *Model) RecordRateLimit(wait time.Duration) {
	m.rateWaits++
	m.lastWait = wait
	m.AddLogMessage(LevelWarn, "Rate limit reached, waited "+wait.Round(time.Millisecond).String())
}

// Finish records the outcome of the export
func (m *Model) Finish(result *scraper.Result, err error) {
	m.done = true
	m.result = result
	m.err = err
	if err != nil {
		m.AddLogMessage(LevelError, "Export stopped: "+err.Error())
		return
	}
	m.covered = 1
	m.AddLogMessage(LevelSuccess, "Export completed: "+result.Output)
}

// AddLogMessage appends to the log panel, keeping the newest entries
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Done reports whether the export has finished
func (m *Model) Done() bool {
	return m.done
}

// Err returns the export error, if any
func (m *Model) Err() error {
	return m.err
}

// Rate returns exported posts per minute since the start
func (m *Model) Rate() float64 {
	elapsed := time.Since(m.started).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.posts) / elapsed
}
