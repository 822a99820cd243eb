package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if len(config.Engine.Cards) != 7 || config.Engine.Cards[0] != 1 || config.Engine.Cards[6] != 64 {
		t.Errorf("Expected default cards 1..64, got %v", config.Engine.Cards)
	}

	if config.Engine.Method != "memo" {
		t.Errorf("Expected default method to be memo, got %s", config.Engine.Method)
	}

	if config.Retry.MaxAttempts != 20 {
		t.Errorf("Expected default max attempts to be 20, got %d", config.Retry.MaxAttempts)
	}

	if config.Graph.Timeout != 5*time.Second {
		t.Errorf("Expected default graph timeout to be 5s, got %v", config.Graph.Timeout)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOPSUM_APP_ID", "env-app")
	t.Setenv("STOPSUM_APP_SECRET", "env-secret")
	t.Setenv("STOPSUM_BASELINE", "11")
	t.Setenv("STOPSUM_REQUESTS_PER_MINUTE", "30")
	t.Setenv("STOPSUM_OUTPUT_DIR", "/tmp/test-export")
	t.Setenv("STOPSUM_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Graph.AppID != "env-app" {
		t.Errorf("Expected app ID to be env-app, got %s", config.Graph.AppID)
	}

	if config.Graph.AppSecret != "env-secret" {
		t.Errorf("Expected app secret to be env-secret, got %s", config.Graph.AppSecret)
	}

	if config.Engine.Baseline != 11 {
		t.Errorf("Expected baseline to be 11, got %d", config.Engine.Baseline)
	}

	if config.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.RateLimit.RequestsPerMinute)
	}

	if config.Export.OutputDirectory != "/tmp/test-export" {
		t.Errorf("Expected output directory to be /tmp/test-export, got %s", config.Export.OutputDirectory)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("STOPSUM_BASELINE", "ace")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric baseline")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "empty cards",
			mutate:    func(c *Config) { c.Engine.Cards = nil },
			wantError: true,
		},
		{
			name:      "non-positive card",
			mutate:    func(c *Config) { c.Engine.Cards = []int{1, 0, 4} },
			wantError: true,
		},
		{
			name:      "zero baseline",
			mutate:    func(c *Config) { c.Engine.Baseline = 0 },
			wantError: true,
		},
		{
			name:      "unknown method",
			mutate:    func(c *Config) { c.Engine.Method = "dfs" },
			wantError: true,
		},
		{
			name:      "inverted event range",
			mutate:    func(c *Config) { c.Report.EventFrom, c.Report.EventTo = 5, 1 },
			wantError: true,
		},
		{
			name:      "invalid report format",
			mutate:    func(c *Config) { c.Report.Format = "xml" },
			wantError: true,
		},
		{
			name:      "no report workers",
			mutate:    func(c *Config) { c.Report.Workers = 0 },
			wantError: true,
		},
		{
			name:      "zero rate limit",
			mutate:    func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateExport(t *testing.T) {
	config := DefaultConfig()
	if err := config.ValidateExport(); err != nil {
		t.Errorf("Expected default export config to be valid, got %v", err)
	}

	config.Export.Since = "2016-01-01"
	config.Export.Until = "2010-01-01"
	if err := config.ValidateExport(); err == nil {
		t.Error("Expected error when since is after until")
	}

	config.Export.Since = "01/01/2010"
	if err := config.ValidateExport(); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"baseline":   11,
		"thresholds": []int{50},
		"output":     "/flag/output",
		"log-level":  "error",
		"format":     "yaml",
	}

	config.MergeCommandLineFlags(flags)

	if config.Engine.Baseline != 11 {
		t.Errorf("Expected baseline to be 11, got %d", config.Engine.Baseline)
	}

	if len(config.Report.Thresholds) != 1 || config.Report.Thresholds[0] != 50 {
		t.Errorf("Expected thresholds [50], got %v", config.Report.Thresholds)
	}

	if config.Export.OutputDirectory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Export.OutputDirectory)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}

	if config.Report.Format != "yaml" {
		t.Errorf("Expected format to be yaml, got %s", config.Report.Format)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "test-config.yaml")

	config := DefaultConfig()
	config.Graph.AppID = "save-test-app"
	config.Engine.Cards = []int{3, 5, 7}
	config.Graph.Timeout = 9 * time.Second

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig := DefaultConfig()
	if err := loadedConfig.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Graph.AppID != "save-test-app" {
		t.Errorf("Expected loaded app ID to be save-test-app, got %s", loadedConfig.Graph.AppID)
	}

	if len(loadedConfig.Engine.Cards) != 3 || loadedConfig.Engine.Cards[2] != 7 {
		t.Errorf("Expected loaded cards [3 5 7], got %v", loadedConfig.Engine.Cards)
	}

	if loadedConfig.Graph.Timeout != 9*time.Second {
		t.Errorf("Expected loaded timeout to be 9s, got %v", loadedConfig.Graph.Timeout)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected config permissions 0600, got %v", info.Mode().Perm())
	}
}
