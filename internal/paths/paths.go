// Package paths lays out the data directory. Everything lives under
// ~/.oneway unless overridden by the environment.
package paths

import (
	"os"
	"path/filepath"
)

// Environment overrides.
const (
	EnvHome     = "ONEWAY_HOME"
	EnvDBPath   = "ONEWAY_DB_PATH"
	EnvAuthPath = "ONEWAY_AUTH_PATH"
)

// ConfigFile is the config file name looked up in each candidate directory.
const ConfigFile = "oneway.toml"

// BaseDir returns $ONEWAY_HOME or ~/.oneway.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".oneway")
}

// DBPath returns the archive database path.
func DBPath() string {
	if p := os.Getenv(EnvDBPath); p != "" {
		return p
	}
	return filepath.Join(BaseDir(), "messages.db")
}

// AuthDBPath returns the whatsmeow session database path.
func AuthDBPath() string {
	if p := os.Getenv(EnvAuthPath); p != "" {
		return p
	}
	return filepath.Join(BaseDir(), "auth", "session.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "oneway.log")
}

// LockDir returns the directory holding the sync lock.
func LockDir() string {
	return BaseDir()
}

// ConfigCandidates returns config file locations in lookup order: the
// working directory, the base directory, then the XDG config directory.
func ConfigCandidates() []string {
	candidates := []string{
		ConfigFile,
		filepath.Join(BaseDir(), ConfigFile),
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "oneway", ConfigFile))
	}
	return candidates
}

// EnsureDir creates the directory tree with owner-only permissions.
func EnsureDir() error {
	dirs := []string{
		BaseDir(),
		LogDir(),
		filepath.Dir(AuthDBPath()),
		filepath.Dir(DBPath()),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
