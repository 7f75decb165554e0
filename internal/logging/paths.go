package logging

import (
	"os"
	"path/filepath"
)

// LogFileName is the name of the debug log file.
const LogFileName = "shipcheck.log"

// DefaultLogDir returns the default log directory (~/.shipcheck/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".shipcheck", "logs")
	}
	return filepath.Join(home, ".shipcheck", "logs")
}

// DefaultLogPath returns the default debug log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}
