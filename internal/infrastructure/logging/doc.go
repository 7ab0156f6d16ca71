// Package logging provides structured logging for fusionsolar2mqtt.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - Text output for the console (default), JSON for machine consumption
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warning, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the system section in settings.yaml:
//
//	system:
//	  log_level: "info"     # debug, info, warning, error
//	  log_format: "text"    # text, json
//	  log_output: "stderr"  # stderr, stdout
//
// Logs go to stderr by default so that --list output on stdout is not
// interleaved with log lines.
//
// # Usage
//
//	logger := logging.New(cfg.System, "1.0.0")
//	logger.Info("publishing snapshot", "records", n)
//	logger.Error("fetch failed", "error", err)
//
// # Security
//
// Never log the northbound password, broker credentials, or session tokens.
package logging
