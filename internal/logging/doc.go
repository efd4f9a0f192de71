// Package logging provides a simple leveled logging interface for the
// photo curator.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-photo failures land here)
//   - INFO: General operational messages (mode transitions, run summaries)
//   - WARN: Warning conditions (cache persistence problems)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
package logging
