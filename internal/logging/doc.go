// Package logging sets up structured slog logging for shipcheck.
//
// Check runs log to stderr at the configured level. With --debug, JSON logs
// are also written to ~/.shipcheck/logs/shipcheck.log through a size-rotated
// writer. The MCP server logs to the file only, since stdout carries the
// protocol stream.
package logging
