package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName     = "migrator"
	configFile  = "config.toml"
	stateFile   = "system_state.json"
	historyFile = "history.db"
	logFile     = "migrator.log"
)

// ConfigDir returns the configuration directory for migrator.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir returns the data directory for migrator.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns the directory holding logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// StatePath returns the full path to the persisted system state.
func StatePath() string {
	return filepath.Join(DataDir(), stateFile)
}

// HistoryPath returns the full path to the history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// LogPath returns the full path to the log file.
func LogPath() string {
	return filepath.Join(StateDir(), logFile)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}

// Reload re-reads the XDG environment variables. Tests call it after t.Setenv.
func Reload() {
	xdg.Reload()
}
