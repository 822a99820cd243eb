// Package logger provides the structured logging interface used across
// stopsum.
//
// It wraps zerolog behind a small interface so engine, exporter and CLI code
// can attach fields without depending on zerolog directly:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "debug", Format: "json"})
//
//	logger.WithField("page", "nytimes").Info("Export started")
//	logger.GetLogger().InfoWithFields("Distribution computed", map[string]interface{}{
//	    "threshold": 1000,
//	    "method":    "memo",
//	})
//
// Console output goes to stderr so report output on stdout stays clean. When
// a file is configured, entries are written to both the console and the file.
// Tests use NewNopLogger or NewTestLogger to capture entries.
package logger
