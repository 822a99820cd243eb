package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stopsum/pkg/scraper"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		SetQuietMode(false)
	})
	return &stdout, &stderr
}

func TestQuietModeKeepsErrors(t *testing.T) {
	stdout, stderr := captureOutput(t)

	SetQuietMode(true)
	assert.True(t, IsQuietMode())
	PrintInfo("Page", "bbcnews")
	PrintSuccess("done")
	PrintError("Export failed", errors.New("boom"))

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Export failed: boom")

	SetQuietMode(false)
	PrintInfo("Page", "bbcnews")
	assert.Contains(t, stdout.String(), "bbcnews")
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	display := NewProgressDisplay(&buf, false)
	w := scraper.Window{
		Since: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	display.ExportStarted("bbcnews", w, false)
	display.PageExported(scraper.Progress{Page: "bbcnews", Pages: 1, Posts: 100, Oldest: time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), Window: w})
	display.RateLimited(time.Second)
	display.PageExported(scraper.Progress{Page: "bbcnews", Pages: 2, Posts: 200, Oldest: time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), Window: w})
	display.ExportFinished(&scraper.Result{Page: "bbcnews", Pages: 2, Posts: 200, Output: "out/bbcnews.csv", Duration: 3 * time.Second}, nil)

	out := buf.String()
	assert.Contains(t, out, "Exporting")
	assert.Contains(t, out, "2 pages • 200 posts")
	assert.Contains(t, out, "2013-01-01")
	assert.Contains(t, out, "1 waits")
	assert.Contains(t, out, "Exported 200 posts")
	assert.Contains(t, out, "out/bbcnews.csv")
	assert.Equal(t, 2, strings.Count(out, "\r"))
}

func TestProgressDisplayFailure(t *testing.T) {
	var buf bytes.Buffer
	display := NewProgressDisplay(&buf, true)

	display.ExportStarted("bbcnews", scraper.Window{}, true)
	display.ExportFinished(&scraper.Result{Posts: 42}, errors.New("connection reset"))

	out := buf.String()
	assert.Contains(t, out, "Resuming")
	assert.Contains(t, out, "connection reset")
	assert.Contains(t, out, "42 posts saved")
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no notification daemon")
}

func TestNotifier(t *testing.T) {
	stdout, stderr := captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.Notify("Export complete", "200 posts")
	n.NotifyError("Export failed", "boom")

	assert.Equal(t, []string{"Export complete", "Export failed"}, sender.titles)
	assert.Contains(t, stdout.String(), "200 posts")
	assert.Contains(t, stderr.String(), "boom")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}
