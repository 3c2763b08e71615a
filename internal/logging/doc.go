// Package logging provides structured logging for netscout.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the discovery engine. It provides both general
// logging functions and specialized functions for discovery-specific events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (per-address fingerprints, merged evidence)
//   - Info: Normal operations (probe lifecycle, run summaries, connections)
//   - Warn: Non-fatal issues (probe timeouts, unparseable responses)
//   - Error: Fatal issues (startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device classified",
//	    zap.String("addr", "192.168.1.100"),
//	    zap.String("manufacturer", "Sonos"),
//	    zap.Float64("confidence", 0.9),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Probe lifecycle:
//
//	logging.LogProbeStart(runID, "announcement", 10*time.Second)
//	logging.LogProbeFinish(runID, "announcement", 4, elapsed, nil)
//	logging.LogProbeSkipped(runID, "activescan", "nmap binary not found")
//
// Evidence and fingerprinting:
//
//	logging.LogEvidence(addr, "description", "Philips", "Hue Bridge")
//	logging.LogFingerprint(addr, 80, 200, true)
//
// # Configuration
//
// By default logging is silent so the CLI output stays clean. Set the
// NETSCOUT_LOG_LEVEL environment variable or call Initialize explicitly:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
package logging
