// Package log provides a structured logging interface for seqanomaly.
//
// The Logger interface is small and slog-shaped so the backend can be
// swapped; the default backend is zerolog. ML-specific attribute keys live
// in attributes.go.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("anomaly").With(
//	    log.ModelNameKey, "RNNAnomalyDetector",
//	)
//	logger.Debug("Beginning anomaly detector training",
//	    log.SamplesKey, 90,
//	    log.TimestepsKey, 20,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface.
//
// Fields are passed as alternating key/value pairs. A value implementing
// error under the "error" key is rendered with its stack trace when the
// backend supports it.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("Checkpoint write failed",
	//       log.ErrAttrKey, err,
	//       log.EpochKey, 12,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields:
	//
	//   if logger.Enabled(ctx, LevelDebug) {
	//       logger.Debug("Weights", "norm", network.WeightNorm())
	//   }
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
