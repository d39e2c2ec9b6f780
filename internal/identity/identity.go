// Package identity provides canonical package keys and the standard
// directories declarch reads and writes: config root, state directory,
// lock file and backup file naming.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is used to namespace XDG-style directories.
	AppName = "declarch"
	// ConfigFileName is the root config file name searched for in discovery.
	ConfigFileName = "declarch.kdl"
	// StateFileName is the name of the durable state file.
	StateFileName = "state.json"
	// LockFileName is the advisory lock file guarding state mutation.
	LockFileName = "state.lock"
	// SettingsFileName holds the active profile/host selector and other
	// per-machine CLI preferences, separate from the declared config.
	SettingsFileName = "settings.json"
)

// Key is a canonical "backend:name" package identity.
type Key struct {
	Backend string
	Name    string
}

// String renders the canonical external key form "backend:name".
func (k Key) String() string {
	return k.Backend + ":" + k.Name
}

// NewKey builds a Key, rejecting empty components.
func NewKey(backend, name string) (Key, error) {
	if backend == "" {
		return Key{}, fmt.Errorf("canonical key: backend must not be empty")
	}
	if name == "" {
		return Key{}, fmt.Errorf("canonical key: name must not be empty")
	}
	return Key{Backend: backend, Name: name}, nil
}

// ParseKey parses a "backend:name" string per I1. The name half may itself
// contain colons (e.g. scoped npm packages); only the first colon splits.
func ParseKey(s string) (Key, error) {
	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Key{}, fmt.Errorf("canonical key %q does not match backend:name", s)
	}
	backend := s[:idx]
	name := s[idx+1:]
	if strings.ContainsAny(backend, " \t\n") {
		return Key{}, fmt.Errorf("canonical key %q: backend contains whitespace", s)
	}
	return Key{Backend: backend, Name: name}, nil
}

// ConfigDir returns the directory searched for declarch.kdl when no
// explicit path is given: $XDG_CONFIG_HOME/declarch, falling back to
// ~/.config/declarch.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// StateDir returns $XDG_STATE_HOME/declarch, falling back to
// ~/.local/state/declarch.
func StateDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", AppName), nil
}

// CacheDir returns $XDG_CACHE_HOME/declarch, falling back to
// ~/.cache/declarch.
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// StatePath returns the full path to the state file.
func StatePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateFileName), nil
}

// LockPath returns the full path to the advisory lock file.
func LockPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LockFileName), nil
}

// SettingsPath returns the full path to the CLI settings file.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// BackupPath returns the path of the Nth state backup generation.
func BackupPath(generation int) (string, error) {
	statePath, err := StatePath()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.backup.%d", statePath, generation), nil
}

// BackendDefDir returns the path of the "backends" subdirectory of the
// config root. The config loader does not read backend definitions from
// it.
func BackendDefDir(configRoot string) string {
	return filepath.Join(configRoot, "backends")
}

// FindConfig searches standard locations for declarch.kdl, in priority
// order: current directory, then $XDG_CONFIG_HOME/declarch (or
// ~/.config/declarch).
func FindConfig() (string, error) {
	cwdCandidate := filepath.Join(".", ConfigFileName)
	if _, err := os.Stat(cwdCandidate); err == nil {
		abs, err := filepath.Abs(cwdCandidate)
		if err != nil {
			return cwdCandidate, nil
		}
		return abs, nil
	}

	dir, err := ConfigDir()
	if err == nil {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not find %s in any standard location", ConfigFileName)
}
