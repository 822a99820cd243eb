package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"stopsum/pkg/scraper"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
	barWidth      = 20
)

// ProgressDisplay prints a single updating progress line for a feed export.
// In verbose mode every page gets its own line instead.
type ProgressDisplay struct {
	mu         sync.Mutex
	w          io.Writer
	page       string
	window     scraper.Window
	pages      int
	posts      int
	oldest     time.Time
	startTime  time.Time
	waits      int
	verbose    bool
	lineLength int
}

// NewProgressDisplay creates a display writing to w
func NewProgressDisplay(w io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{w: w, verbose: verbose, startTime: time.Now()}
}

func (p *ProgressDisplay) ExportStarted(page string, window scraper.Window, resumed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	p.window = window
	p.startTime = time.Now()

	action := "Exporting"
	if resumed {
		action = "Resuming"
	}
	fmt.Fprintf(p.w, "%s %s %s\n", Magenta("→"), action, Cyan(page))
}

func (p *ProgressDisplay) PageExported(progress scraper.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages = progress.Pages
	p.posts = progress.Posts
	p.oldest = progress.Oldest

	if p.verbose {
		fmt.Fprintf(p.w, "%s page %d • %d posts • back to %s\n",
			Green("✓"), p.pages, p.posts, formatDay(p.oldest))
		return
	}
	p.printLine(progress.Covered())
}

func (p *ProgressDisplay) RateLimited(wait time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.waits++
	if p.verbose {
		fmt.Fprintf(p.w, "%s Rate limit reached, waited %s\n", Yellow("⚠"), FormatDuration(wait))
	}
}

func (p *ProgressDisplay) ExportFinished(result *scraper.Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lineLength > 0 {
		fmt.Fprintln(p.w)
		p.lineLength = 0
	}
	if err != nil {
		fmt.Fprintf(p.w, "%s Export of %s stopped: %v\n", Red("✗"), p.page, err)
		if result != nil && result.Posts > 0 {
			fmt.Fprintf(p.w, "  %s %d posts saved, use --resume to continue\n", Dim("•"), result.Posts)
		}
		return
	}

	fmt.Fprintf(p.w, "%s Exported %d posts from %s\n", Green("✓"), result.Posts, Cyan(result.Page))
	fmt.Fprintf(p.w, "  %s %d pages in %s\n", Dim("•"), result.Pages, FormatDuration(result.Duration))
	fmt.Fprintf(p.w, "  %s %s\n", Dim("•"), result.Output)
	if result.Skipped > 0 || result.Invalid > 0 {
		fmt.Fprintf(p.w, "  %s %d duplicates skipped, %d malformed posts\n", Dim("•"), result.Skipped, result.Invalid)
	}
}

func (p *ProgressDisplay) printLine(covered float64) {
	filled := int(covered * barWidth)
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled)

	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.posts) / elapsed.Minutes()
	}

	line := fmt.Sprintf("%s [%s] %3.0f%% • %d pages • %d posts • %.1f/min • %s",
		p.page, bar, covered*100, p.pages, p.posts, rate, formatDay(p.oldest))
	if p.waits > 0 {
		line += fmt.Sprintf(" • %d waits", p.waits)
	}

	pad := ""
	if n := p.lineLength - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(p.w, "\r%s%s", line, pad)
	p.lineLength = len(line)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
