package interfaces

// Logger defines the interface for logging throughout the application.
// The production implementation is backed by logrus; tests use a recording mock.
//
// Example usage:
//
//	logger.Info("Discovered article urls", map[string]interface{}{
//		"source": "coindesk",
//		"count":  42,
//	})
//
//	logger.Warn("Article fetch failed", map[string]interface{}{
//		"url":   articleURL,
//		"error": err.Error(),
//	})
type Logger interface {
	// Debug logs a debug level message with optional structured fields.
	Debug(msg string, fields map[string]interface{})

	// Info logs an info level message with optional structured fields.
	Info(msg string, fields map[string]interface{})

	// Warn logs a warning level message with optional structured fields.
	// Recovered failures (fallback list URL, skipped article) are logged here.
	Warn(msg string, fields map[string]interface{})

	// Error logs an error level message with optional structured fields.
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything. It is the default when no logger is injected.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
