package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "NETSCOUT_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks NETSCOUT_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	// If no level provided, check environment variable
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Customize encoder for better readability
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the NETSCOUT_LOG_LEVEL
// environment variable. This is the recommended way to initialize logging
// for CLI commands that want silent mode by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		// This ensures no unexpected log output in CLI commands
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogProbeStart logs the start of one probe within a discovery run
func LogProbeStart(runID string, probe string, budget time.Duration) {
	Info("Probe started",
		zap.String("run_id", runID),
		zap.String("probe", probe),
		zap.Duration("budget", budget),
	)
}

// LogProbeFinish logs the outcome of one probe within a discovery run
func LogProbeFinish(runID string, probe string, results int, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("probe", probe),
		zap.Int("results", results),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		Warn("Probe finished with errors", fields...)
		return
	}
	Info("Probe finished", fields...)
}

// LogProbeSkipped logs a probe that was disabled or whose underlying
// capability is not available on this system
func LogProbeSkipped(runID string, probe string, reason string) {
	Info("Probe skipped",
		zap.String("run_id", runID),
		zap.String("probe", probe),
		zap.String("reason", reason),
	)
}

// LogEvidence logs a single piece of evidence as it is merged
func LogEvidence(addr string, probe string, manufacturer string, deviceType string) {
	Debug("Evidence merged",
		zap.String("addr", addr),
		zap.String("probe", probe),
		zap.String("manufacturer", manufacturer),
		zap.String("device_type", deviceType),
	)
}

// LogFingerprint logs an HTTP fingerprint attempt against one address/port
func LogFingerprint(addr string, port int, status int, matched bool) {
	Debug("HTTP fingerprint",
		zap.String("addr", addr),
		zap.Int("port", port),
		zap.Int("status", status),
		zap.Bool("matched", matched),
	)
}

// LogConnection logs a results-server connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogHTTPRequest logs an HTTP request handled by the results server
func LogHTTPRequest(remoteAddr string, method string, path string, statusCode int) {
	Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
