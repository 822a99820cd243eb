package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logo printed by the CLI banner
const Logo = `
  ┌─────────────────────────────────────────────┐
  │  ╔═╗╔╦╗╔═╗╔═╗╔═╗╦ ╦╔╦╗                      │
  │  ╚═╗ ║ ║ ║╠═╝╚═╗║ ║║║║                      │
  │  ╚═╝ ╩ ╚═╝╩  ╚═╝╚═╝╩ ╩                      │
  │  overshoot distributions · page feed export │
  └─────────────────────────────────────────────┘
`

var (
	colorCyan    = lipgloss.Color("#00FFFF")
	colorYellow  = lipgloss.Color("#FFFF00")
	colorRed     = lipgloss.Color("#FF3B3B")
	colorGreen   = lipgloss.Color("#39FF14")
	colorMagenta = lipgloss.Color("#FF00FF")
	colorDim     = lipgloss.Color("#808080")
)

// Color functions for terminal output
var (
	Cyan    = colorize(lipgloss.NewStyle().Foreground(colorCyan))
	Yellow  = colorize(lipgloss.NewStyle().Foreground(colorYellow))
	Red     = colorize(lipgloss.NewStyle().Foreground(colorRed))
	Green   = colorize(lipgloss.NewStyle().Foreground(colorGreen))
	Magenta = colorize(lipgloss.NewStyle().Foreground(colorMagenta))
	Dim     = colorize(lipgloss.NewStyle().Foreground(colorDim))
	Bold    = colorize(lipgloss.NewStyle().Bold(true))
)

var (
	outMu     sync.Mutex
	out       io.Writer = os.Stdout
	errOut    io.Writer = os.Stderr
	quietMode bool
)

func colorize(style lipgloss.Style) func(string) string {
	return func(text string) string {
		return style.Render(text)
	}
}

// SetOutput redirects regular and error output, mainly for tests
func SetOutput(stdout, stderr io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = stdout
	errOut = stderr
}

// SetQuietMode suppresses everything but errors
func SetQuietMode(quiet bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quietMode
}

// Stdout returns the writer regular output goes to, or io.Discard in quiet mode
func Stdout() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	if quietMode {
		return io.Discard
	}
	return out
}

func stderr() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return errOut
}

// PrintLogo prints the logo
func PrintLogo() {
	fmt.Fprint(Stdout(), Cyan(Logo))
}

// PrintError prints an error message; it is shown even in quiet mode
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(stderr(), Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Stdout(), Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Stdout(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Stdout(), Yellow(msg))
}

