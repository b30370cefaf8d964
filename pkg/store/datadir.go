package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "habitual"

// ResolveDataDir picks the data directory: an explicit value wins,
// otherwise the OS default.
func ResolveDataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return DefaultDataDir()
}

// DefaultDataDir returns the OS-appropriate default data directory.
//
//   - macOS:   ~/Library/Application Support/habitual
//   - Linux:   $XDG_DATA_HOME/habitual (fallback ~/.local/share/habitual)
//   - Windows: %LOCALAPPDATA%\habitual (fallback %APPDATA%\habitual)
func DefaultDataDir() string {
	return defaultDataDirForOS(runtime.GOOS)
}

func defaultDataDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				return filepath.Join(dir, appName)
			}
		}
		return filepath.Join(home, appName)
	default: // linux, freebsd, etc.
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, ".local", "share", appName)
	}
}
