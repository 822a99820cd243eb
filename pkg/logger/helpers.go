package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

func orGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// LogRequest logs a completed Graph API request. The level follows the
// status class.
func LogRequest(l Logger, method, endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}

	l = orGlobal(l)
	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs that a caller is waiting on the local limiter or a
// server-side throttle
func LogRateLimit(l Logger, endpoint string, wait time.Duration) {
	orGlobal(l).WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"wait":     wait,
		"action":   "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogExportProgress logs feed export progress
func LogExportProgress(l Logger, page string, pages, posts int) {
	orGlobal(l).WithFields(map[string]interface{}{
		"page":  page,
		"pages": pages,
		"posts": posts,
	}).Info("Export progress")
}

// LogCalculation logs a finished distribution computation
func LogCalculation(l Logger, method, weighting string, threshold, excluded int, took time.Duration) {
	orGlobal(l).DebugWithFields("Distribution computed", map[string]interface{}{
		"method":    method,
		"weighting": weighting,
		"threshold": threshold,
		"excluded":  excluded,
		"duration":  took,
	})
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
