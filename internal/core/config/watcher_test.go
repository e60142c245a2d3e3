package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[scan]\nchunk_size = 16\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[scan]\nchunk_size = 48\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 48, cfg.Scan.ChunkSize)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatcher_InvalidReloadIsDropped(t *testing.T) {
	path := writeConfig(t, "")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("[scan]\nchunk_size = -4\n"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("invalid config delivered")
	case <-time.After(300 * time.Millisecond):
	}
	w.Stop()
	w.Stop()
}
