package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, "/cfg/brokenpkg/brokenpkg.toml", DefaultPath())
}

func TestDefaultPath_HomeFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "relative/ignored")
	assert.Equal(t, filepath.Join(home, ".config", "brokenpkg", "brokenpkg.toml"), DefaultPath())
}

func TestLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, "/state/brokenpkg", StateDir())
	assert.Equal(t, "/state/brokenpkg/brokenpkg.log", LogPath())
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "/base/x", ResolveRelative("/base", "x"))
	assert.Equal(t, "/abs", ResolveRelative("/base", "/abs/"))
	assert.Equal(t, "/base", ResolveRelative("/base/", " "))
}
