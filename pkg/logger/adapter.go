package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter provides a unified interface for both single and multi-logger
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
	useMulti     bool
}

// NewLoggerAdapter creates a new logger adapter; general receives everything
// that has no category file (startup, HTTP access, shutdown)
func NewLoggerAdapter(multiLogger *MultiLogger, general *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{
		multiLogger:  multiLogger,
		singleLogger: general,
		useMulti:     true,
	}
}

// NewSingleLoggerAdapter creates an adapter that sends every category to one logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{
		singleLogger: logger,
		useMulti:     false,
	}
}

// General returns the general logger
func (la *LoggerAdapter) General() *zap.Logger {
	return la.singleLogger
}

// Job returns the job logger
func (la *LoggerAdapter) Job() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Job()
	}
	return la.singleLogger
}

// Reaper returns the reaper logger
func (la *LoggerAdapter) Reaper() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Reaper()
	}
	return la.singleLogger
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Error()
	}
	return la.singleLogger
}

// LogError logs an error to both category and error logs
func (la *LoggerAdapter) LogError(category LogCategory, msg string, fields ...zap.Field) {
	if la.useMulti {
		la.multiLogger.LogError(category, msg, fields...)
		return
	}
	la.singleLogger.Error(msg, append(fields, zap.String("category", string(category)))...)
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.useMulti {
		la.singleLogger.Sync()
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}

// GetMultiLogger returns the underlying multi-logger, nil in single mode
func (la *LoggerAdapter) GetMultiLogger() *MultiLogger {
	return la.multiLogger
}
