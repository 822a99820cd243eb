package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for stopsum
type Config struct {
	// Overshoot engine defaults
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Scenario report
	Report ReportConfig `yaml:"report" json:"report"`

	// Social graph API access
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// Feed export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// EngineConfig holds the draw-value set and evaluation defaults
type EngineConfig struct {
	// Cards is the draw-value set; the first entry is the baseline slot
	Cards     []int  `yaml:"cards" json:"cards"`
	Baseline  int    `yaml:"baseline" json:"baseline"`
	Method    string `yaml:"method" json:"method"`
	Weighting string `yaml:"weighting" json:"weighting"`
	WalkLimit int    `yaml:"walk_limit" json:"walk_limit"`
}

// ReportConfig holds the scenario grid and the conditional event
type ReportConfig struct {
	Thresholds []int `yaml:"thresholds" json:"thresholds"`
	Baselines  []int `yaml:"baselines" json:"baselines"`
	// Event is the overshoot range [EventFrom, EventTo)
	EventFrom int `yaml:"event_from" json:"event_from"`
	EventTo   int `yaml:"event_to" json:"event_to"`
	// ConditionValue is the card that must be drawn at least once
	ConditionValue int    `yaml:"condition_value" json:"condition_value"`
	Format         string `yaml:"format" json:"format"`
	// Workers is the number of scenarios evaluated concurrently
	Workers int `yaml:"workers" json:"workers"`
}

// GraphConfig holds social graph API settings
type GraphConfig struct {
	AppID      string        `yaml:"app_id" json:"app_id"`
	AppSecret  string        `yaml:"app_secret" json:"app_secret"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	APIVersion string        `yaml:"api_version" json:"api_version"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	PageSize   int           `yaml:"page_size" json:"page_size"`
	Fields     string        `yaml:"fields" json:"fields"`
}

// ExportConfig holds feed export settings
type ExportConfig struct {
	OutputDirectory string `yaml:"output_directory" json:"output_directory"`
	// Since and Until bound the export window, formatted as 2006-01-02
	Since         string `yaml:"since" json:"since"`
	Until         string `yaml:"until" json:"until"`
	ProgressEvery int    `yaml:"progress_every" json:"progress_every"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// RetryConfig holds retry configuration for API calls
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultFields is the post field selection requested from the graph
const DefaultFields = "message,type,created_time,likes.limit(1).summary(true),shares,comments.limit(1).summary(true)"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Cards:     []int{1, 2, 4, 8, 16, 32, 64},
			Baseline:  1,
			Method:    "memo",
			Weighting: "active",
			WalkLimit: 25,
		},
		Report: ReportConfig{
			Thresholds:     []int{21, 1000},
			Baselines:      []int{1, 11},
			EventFrom:      1,
			EventTo:        5,
			ConditionValue: 8,
			Format:         "text",
			Workers:        4,
		},
		Graph: GraphConfig{
			BaseURL:    "https://graph.facebook.com",
			APIVersion: "v2.5",
			Timeout:    5 * time.Second,
			PageSize:   100,
			Fields:     DefaultFields,
		},
		Export: ExportConfig{
			OutputDirectory: ".",
			Since:           "2010-01-01",
			Until:           "2016-01-01",
			ProgressEvery:   100,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			Strategy:          "paced",
		},
		Retry: RetryConfig{
			MaxAttempts:  20,
			InitialDelay: 5 * time.Second,
			MaxDelay:     5 * time.Second,
			Multiplier:   1.0,
			JitterFactor: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Graph credentials
	if appID := os.Getenv("STOPSUM_APP_ID"); appID != "" {
		c.Graph.AppID = appID
	}
	if secret := os.Getenv("STOPSUM_APP_SECRET"); secret != "" {
		c.Graph.AppSecret = secret
	}
	if baseURL := os.Getenv("STOPSUM_GRAPH_URL"); baseURL != "" {
		c.Graph.BaseURL = baseURL
	}

	// Engine
	if baseline := os.Getenv("STOPSUM_BASELINE"); baseline != "" {
		val, err := strconv.Atoi(baseline)
		if err != nil {
			errs = append(errs, fmt.Errorf("STOPSUM_BASELINE: %w", err))
		} else {
			c.Engine.Baseline = val
		}
	}
	if method := os.Getenv("STOPSUM_METHOD"); method != "" {
		c.Engine.Method = method
	}

	// Rate limiting
	if rpm := os.Getenv("STOPSUM_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("STOPSUM_REQUESTS_PER_MINUTE: %w", err))
		} else if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	// Output directory
	if outputDir := os.Getenv("STOPSUM_OUTPUT_DIR"); outputDir != "" {
		c.Export.OutputDirectory = outputDir
	}

	// Logging level
	if logLevel := os.Getenv("STOPSUM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".stopsum.yaml",
		".stopsum.yml",
		"stopsum.yaml",
		filepath.Join(home, ".config", "stopsum", "config.yaml"),
		filepath.Join(home, ".config", "stopsum", "config.yml"),
		filepath.Join(home, ".stopsum.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Engine
	if len(c.Engine.Cards) == 0 {
		errs = append(errs, errors.New("engine cards must not be empty"))
	}
	for _, card := range c.Engine.Cards {
		if card <= 0 {
			errs = append(errs, fmt.Errorf("engine card %d must be positive", card))
		}
	}
	if c.Engine.Baseline <= 0 {
		errs = append(errs, fmt.Errorf("engine baseline %d must be positive", c.Engine.Baseline))
	}
	validMethods := map[string]bool{"memo": true, "breadth": true, "walk": true}
	if !validMethods[strings.ToLower(c.Engine.Method)] {
		errs = append(errs, fmt.Errorf("invalid engine method %q", c.Engine.Method))
	}
	validWeightings := map[string]bool{"active": true, "full": true}
	if !validWeightings[strings.ToLower(c.Engine.Weighting)] {
		errs = append(errs, fmt.Errorf("invalid engine weighting %q", c.Engine.Weighting))
	}

	// Report
	for _, threshold := range c.Report.Thresholds {
		if threshold < 0 {
			errs = append(errs, fmt.Errorf("report threshold %d must not be negative", threshold))
		}
	}
	for _, baseline := range c.Report.Baselines {
		if baseline <= 0 {
			errs = append(errs, fmt.Errorf("report baseline %d must be positive", baseline))
		}
	}
	if c.Report.EventFrom < 0 || c.Report.EventTo < c.Report.EventFrom {
		errs = append(errs, errors.New("report event range must satisfy 0 <= from <= to"))
	}
	if c.Report.Workers < 1 {
		errs = append(errs, errors.New("report workers must be at least 1"))
	}
	validFormats := map[string]bool{"text": true, "yaml": true, "json": true}
	if !validFormats[strings.ToLower(c.Report.Format)] {
		errs = append(errs, fmt.Errorf("invalid report format %q", c.Report.Format))
	}

	// Rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	validStrategies := map[string]bool{"paced": true, "token_bucket": true, "sliding_window": true}
	if !validStrategies[strings.ToLower(c.RateLimit.Strategy)] {
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
	}

	// Retry
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	// Graph
	if c.Graph.Timeout <= 0 {
		errs = append(errs, errors.New("graph timeout must be positive"))
	}
	if c.Graph.PageSize <= 0 {
		errs = append(errs, errors.New("graph page size must be positive"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	return errors.Join(errs...)
}

// ValidateExport checks the settings only the feed export needs
func (c *Config) ValidateExport() error {
	var errs []error

	if c.Export.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	since, err := c.Export.SinceTime()
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid since date: %w", err))
	}
	until, err := c.Export.UntilTime()
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid until date: %w", err))
	}
	if !since.IsZero() && !until.IsZero() && !since.Before(until) {
		errs = append(errs, errors.New("since must be before until"))
	}

	return errors.Join(errs...)
}

// DateLayout is the layout of the export window dates
const DateLayout = "2006-01-02"

// SinceTime parses the export window start
func (e ExportConfig) SinceTime() (time.Time, error) {
	return parseDate(e.Since)
}

// UntilTime parses the export window end
func (e ExportConfig) UntilTime() (time.Time, error) {
	return parseDate(e.Until)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, value, time.Local)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy with credentials masked for display
func (c *Config) Masked() *Config {
	masked := *c
	masked.Graph.AppSecret = MaskSecret(c.Graph.AppSecret)
	return &masked
}

// MaskSecret masks all but the first and last 4 characters of a secret
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
	if baseline, ok := flags["baseline"].(int); ok {
		c.Engine.Baseline = baseline
	}
	if cards, ok := flags["cards"].([]int); ok && len(cards) > 0 {
		c.Engine.Cards = cards
	}
	if method, ok := flags["method"].(string); ok && method != "" {
		c.Engine.Method = method
	}
	if weighting, ok := flags["weighting"].(string); ok && weighting != "" {
		c.Engine.Weighting = weighting
	}
	if thresholds, ok := flags["thresholds"].([]int); ok && len(thresholds) > 0 {
		c.Report.Thresholds = thresholds
	}
	if baselines, ok := flags["baselines"].([]int); ok && len(baselines) > 0 {
		c.Report.Baselines = baselines
	}
	if from, ok := flags["event-from"].(int); ok {
		c.Report.EventFrom = from
	}
	if to, ok := flags["event-to"].(int); ok {
		c.Report.EventTo = to
	}
	if cond, ok := flags["condition"].(int); ok && cond > 0 {
		c.Report.ConditionValue = cond
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Report.Format = format
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Report.Workers = workers
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Export.OutputDirectory = outputDir
	}
	if since, ok := flags["since"].(string); ok && since != "" {
		c.Export.Since = since
	}
	if until, ok := flags["until"].(string); ok && until != "" {
		c.Export.Until = until
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts >= 0 {
		c.Retry.MaxAttempts = attempts
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".stopsum.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
