package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "brokenpkg"

// DefaultPath is $XDG_CONFIG_HOME/brokenpkg/brokenpkg.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, appName+".toml")
}

// StateDir is $XDG_STATE_HOME/brokenpkg, falling back to ~/.local/state.
func StateDir() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), appName)
}

// LogPath is where logs go while the terminal is owned by the report browser.
func LogPath() string {
	return filepath.Join(StateDir(), appName+".log")
}

func xdgDir(env, fallback string) string {
	if dir := strings.TrimSpace(os.Getenv(env)); dir != "" && filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, fallback)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
