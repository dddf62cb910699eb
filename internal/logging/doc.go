// Package logging builds the slog loggers used across reelsmith.
//
// Two output formats are supported: a console handler that renders
// timestamped key=value lines with an optional component prefix, and a
// JSON handler for log files and machine consumption.
package logging
