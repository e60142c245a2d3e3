package pacman

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout string
	stderr string
	status int
	err    error
	argv   [][]string
}

func (f *fakeRunner) Run(_ context.Context, argv []string, stdout, stderr ports.Consumer) (int, error) {
	f.argv = append(f.argv, argv)
	if f.err != nil {
		return -1, f.err
	}
	var consumeErr error
	if stderr != nil {
		consumeErr = stderr(strings.NewReader(f.stderr))
	}
	if stdout != nil {
		if err := stdout(strings.NewReader(f.stdout)); err != nil && consumeErr == nil {
			consumeErr = err
		}
	}
	return f.status, consumeErr
}

func TestClient_ConfigPaths(t *testing.T) {
	runner := &fakeRunner{stdout: verboseDump, status: 1}
	paths, err := NewClient("", runner, 8).ConfigPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", paths.Root.String())
	assert.Equal(t, "/var/lib/pacman/", paths.DBPath.String())
	assert.Equal(t, [][]string{{"pacman", "--verbose"}}, runner.argv)
}

func TestClient_ConfigPaths_SpawnFailureIsStartupError(t *testing.T) {
	runner := &fakeRunner{err: domainerrors.New(domainerrors.CodeSpawn, "spawn failed")}
	_, err := NewClient("/usr/bin/pacman", runner, 0).ConfigPaths(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStartupConfig))
}

func TestClient_ConfigPaths_EmptyDump(t *testing.T) {
	_, err := NewClient("", &fakeRunner{}, 0).ConfigPaths(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStartupConfig))
}

func TestClient_ForeignPackages(t *testing.T) {
	runner := &fakeRunner{stdout: "yay-bin\nzoom\n"}
	paths := NewPathPair()
	paths.Root.Set("/mnt")
	paths.DBPath.Set("/mnt/var/lib/pacman")

	names, err := NewClient("pacman", runner, 0).ForeignPackages(context.Background(), &paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"yay-bin", "zoom"}, names)
	assert.Equal(t, []string{
		"pacman", "--root", "/mnt", "--dbpath", "/mnt/var/lib/pacman", "--query", "--foreign", "--quiet",
	}, runner.argv[0])
}

func TestClient_ForeignPackages_NoneInstalled(t *testing.T) {
	paths := NewPathPair()
	names, err := NewClient("", &fakeRunner{status: 1}, 0).ForeignPackages(context.Background(), &paths)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestClient_ForeignPackages_Failure(t *testing.T) {
	paths := NewPathPair()
	runner := &fakeRunner{status: 1, stderr: "error: failed to initialize alpm library\n"}
	_, err := NewClient("", runner, 0).ForeignPackages(context.Background(), &paths)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeQuery))
	assert.Contains(t, err.Error(), "failed to initialize alpm library")

	spawnErr := errors.New("exec failed")
	_, err = NewClient("", &fakeRunner{err: spawnErr}, 0).ForeignPackages(context.Background(), &paths)
	require.ErrorIs(t, err, spawnErr)
}
