package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "mousetail"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, appName)
	}
	return filepath.Join(homeDir(), fallbackSuffix, appName)
}

func xdgBaseDir(envVar string, fallbackParts ...string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	parts := append([]string{homeDir()}, fallbackParts...)
	return filepath.Join(parts...)
}

// ConfigDir returns the mousetail config directory ($XDG_CONFIG_HOME/mousetail).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the mousetail state directory ($XDG_STATE_HOME/mousetail).
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LegacyConfigFile returns the path to the JSON settings document older
// installs kept next to config.toml.
func LegacyConfigFile() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// KeyringDir returns the directory used by the encrypted file keyring backend.
func KeyringDir() string {
	return filepath.Join(StateDir(), "keyring")
}

// AnkiBaseDir returns the Anki data directory holding one folder per profile.
// $ANKI_BASE wins, matching Anki's own override.
func AnkiBaseDir() string {
	if v := os.Getenv("ANKI_BASE"); v != "" {
		return v
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "Anki2")
	case "windows":
		if v := os.Getenv("APPDATA"); v != "" {
			return filepath.Join(v, "Anki2")
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", "Anki2")
	default:
		return filepath.Join(xdgBaseDir("XDG_DATA_HOME", ".local", "share"), "Anki2")
	}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if len(p) > 1 && p[0] == '~' && (p[1] == '/' || p[1] == filepath.Separator) {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
