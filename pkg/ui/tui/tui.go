package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stopsum/pkg/scraper"
)

// TUI is a full-screen export dashboard. It implements scraper.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard. onQuit is called when the user quits before
// the export finishes; it usually cancels the export context.
func NewTUI(onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel()
	model.onQuit = onQuit
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Run blocks until the export finishes or the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) ExportStarted(page string, window scraper.Window, resumed bool) {
	t.Send(ExportStartedMsg{Page: page, Window: window, Resumed: resumed})
}

func (t *TUI) PageExported(p scraper.Progress) {
	t.Send(PageExportedMsg{Progress: p})
}

func (t *TUI) RateLimited(wait time.Duration) {
	t.Send(RateLimitedMsg{Wait: wait})
}

func (t *TUI) ExportFinished(result *scraper.Result, err error) {
	t.Send(ExportFinishedMsg{Result: result, Err: err})
}

// Logf adds a formatted message to the log panel
func (t *TUI) Logf(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
