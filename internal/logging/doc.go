// Package logging assembles structured slog loggers and formatting helpers used
// by the mogtools binaries.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that tag log lines with a component and a
// per-invocation run ID. Logs are written to stderr by default so report
// tables on stdout stay machine-friendly. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
