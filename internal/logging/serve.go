package logging

import (
	"log/slog"
)

// SetupServeMode installs a file-only default logger for the MCP server and
// returns its cleanup function.
func SetupServeMode(level string) (func(), error) {
	cfg := ServeConfig(level)
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("Serve mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
