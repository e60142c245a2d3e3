package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	BrokenFilesTotal.Inc()
	ProcessSpawnsTotal.WithLabelValues("pacman").Inc()

	path := filepath.Join(t.TempDir(), "brokenpkg.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "brokenpkg_broken_files_total")
	assert.Contains(t, string(data), `brokenpkg_process_spawns_total{command="pacman"}`)
}
