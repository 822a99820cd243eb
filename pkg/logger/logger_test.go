package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"stopsum/pkg/config"
)

func newJSONLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: level, Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	return l, &buf
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "stopsum.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
			if tt.cfg.File != "" {
				if _, err := os.Stat(tt.cfg.File); err != nil {
					t.Errorf("log file not created: %v", err)
				}
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestJSONOutputCarriesAppFields(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	logger.Info("ready")

	output := buf.String()
	for _, want := range []string{`"message":"ready"`, `"app":"stopsum"`, `"level":"info"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %s", output, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newJSONLogger(t, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn entry missing")
	}
}

func TestFieldChaining(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	base := logger.WithField("page", "nytimes")
	base.WithFields(map[string]interface{}{
		"posts": 42,
		"done":  true,
	}).InfoWithFields("exported", map[string]interface{}{"threshold": 21})

	output := buf.String()
	for _, want := range []string{`"page":"nytimes"`, `"posts":42`, `"done":true`, `"threshold":21`} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %s", output, want)
		}
	}

	// the parent must not see child fields
	buf.Reset()
	base.Info("parent")
	if strings.Contains(buf.String(), `"posts"`) {
		t.Error("child fields leaked into parent logger")
	}
}

func TestWithError(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(errors.New("graph unavailable")).Error("fetch failed")
	if !strings.Contains(buf.String(), "graph unavailable") {
		t.Error("error text not found in output")
	}
}

func TestFieldTypes(t *testing.T) {
	logger, buf := newJSONLogger(t, "debug")

	logger.WithFields(map[string]interface{}{
		"int64":    int64(456),
		"float":    0.25,
		"time":     time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"ints":     []int{21, 1000},
		"floats":   []float64{0.5},
		"custom":   struct{ Name string }{Name: "deck"},
	}).Info("typed")

	output := buf.String()
	for _, want := range []string{`"ints":[21,1000]`, `"float":0.25`, `"Name":"deck"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %s", output, want)
		}
	}
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "/v2.5/nytimes/posts", 200, 20*time.Millisecond)
	LogRequest(tl, "GET", "/v2.5/nytimes/posts", 400, time.Millisecond)
	LogRequest(tl, "GET", "/v2.5/nytimes/posts", 503, time.Millisecond)
	LogRateLimit(tl, "/v2.5/nytimes/posts", time.Second)
	LogExportProgress(tl, "nytimes", 3, 300)
	LogCalculation(tl, "memo", "active", 21, 0, time.Millisecond)

	if got := len(tl.GetMessagesByLevel("ERROR")); got != 1 {
		t.Errorf("expected 1 error entry, got %d", got)
	}
	if got := len(tl.GetMessagesByLevel("WARN")); got != 2 {
		t.Errorf("expected 2 warn entries, got %d", got)
	}
	if !tl.HasMessage("Export progress") {
		t.Error("export progress not logged")
	}

	calc := tl.GetMessagesByLevel("DEBUG")
	if len(calc) != 2 || calc[1].Fields["threshold"] != 21 {
		t.Errorf("unexpected debug entries: %+v", calc)
	}
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "exporter").WithError(errors.New("boom"))

	child.Warn("retrying")

	messages := tl.GetMessages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Fields["component"] != "exporter" || messages[0].Error == nil {
		t.Errorf("unexpected message: %+v", messages[0])
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 || tl.String() != "" {
		t.Error("Clear() left entries behind")
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "disabled"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	WithField("key", "value").Info("with field")
	WithFields(map[string]interface{}{"k": "v"}).Info("with fields")
	WithError(errors.New("x")).Error("with error")

	tl := NewTestLogger()
	SetLogger(tl)
	Info("captured")
	if !tl.HasMessage("captured") {
		t.Error("SetLogger() did not replace the global logger")
	}
}
