// Package log provides structured link event capture for glassbridge.
//
// This package defines the Logger interface and Event types for recording
// what the link manager did: state transitions, channel-open attempts,
// message deliveries and errors. It is separate from operational logging
// (slog) - the event log is a machine-readable trace for debugging flaky
// pairings after the fact.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// For field debugging: write to binary file
//	cfg.EventLog, _ = log.NewFileLogger("/var/log/glassbridge/link.llog")
//
//	// Both
//	cfg.EventLog = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .llog extension.
// The glassbridge-log CLI provides viewing, statistics and export.
package log
