package appshell

// Logger defines the interface for orchestrator logging.
// The appshell framework uses structured logging with key-value pairs
// so host applications can route framework output through whatever
// logging stack they already run.
//
// All orchestrator operations (registration, reconciliation passes,
// lifecycle transitions, manifest reloads, etc.) are logged through this
// interface. The variadic arguments are alternating key-value pairs:
//
//	logger.Info("Application mounted", "app", "navbar", "pass", passID)
//
// This shape is directly compatible with log/slog, logrus, zap's sugared
// logger and similar libraries.
//
// Example implementation using Go's standard log/slog:
//
//	type SlogLogger struct {
//	    logger *slog.Logger
//	}
//
//	func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
//	func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
//	func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
//	func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for normal orchestrator events like mounts, unmounts and
	// completed reconciliation passes.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	// Used for contained lifecycle failures that do not stop the
	// orchestrator but should be visible.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	// Used for unusual conditions such as an unmount failure that
	// quarantines a mount point.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Used for detailed diagnostics like activation set computation,
	// typically disabled in production.
	Debug(msg string, args ...any)
}
