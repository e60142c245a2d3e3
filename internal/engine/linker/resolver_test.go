package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"brokenpkg/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyRunner struct {
	statuses map[string]int
	calls    [][]string
}

func (v *verifyRunner) Run(_ context.Context, argv []string, _, _ ports.Consumer) (int, error) {
	v.calls = append(v.calls, argv)
	status, ok := v.statuses[filepath.Base(argv[0])]
	if !ok {
		return -1, errors.New("unexpected command")
	}
	return status, nil
}

func touch(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\x7fELF"), mode))
	return path
}

func TestResolve_NoCandidatesRunsNothing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libc.so.6", 0o755)
	touch(t, dir, "ld.so.conf", 0o644)

	runner := &verifyRunner{}
	_, err := New(dir, "", runner).Resolve(context.Background(), "/usr/bin/tool")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, runner.calls)
}

func TestResolve_FirstCompatibleInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ld-linux.so.2", 0o755)
	touch(t, dir, "ld-linux-x86-64.so.2", 0o755)
	touch(t, dir, "ld-linux-aarch64.so.1", 0o755)

	runner := &verifyRunner{statuses: map[string]int{
		"ld-linux-aarch64.so.1": 1,
		"ld-linux-x86-64.so.2":  0,
		"ld-linux.so.2":         0,
	}}
	path, err := New(dir, DefaultPrefix, runner).Resolve(context.Background(), "/usr/bin/tool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ld-linux-x86-64.so.2"), path)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{filepath.Join(dir, "ld-linux-aarch64.so.1"), "--verify", "/usr/bin/tool"}, runner.calls[0])
}

func TestResolve_StaticStatusIsAccepted(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ld-linux.so.2", 0o755)
	runner := &verifyRunner{statuses: map[string]int{"ld-linux.so.2": 2}}

	path, err := New(dir, "", runner).Resolve(context.Background(), "/bin/static")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ld-linux.so.2"), path)
}

func TestResolve_SkipsNonExecutableAndDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ld-linux-a.so", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ld-linux-b"), 0o755))
	target := touch(t, dir, "real-loader", 0o755)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "ld-linux-c.so")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "ld-linux-d.so")))

	runner := &verifyRunner{statuses: map[string]int{"ld-linux-c.so": 0}}
	path, err := New(dir, "", runner).Resolve(context.Background(), "/usr/bin/tool")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ld-linux-c.so"), path)
	assert.Len(t, runner.calls, 1)
}

func TestResolve_AllRejected(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ld-linux-x86-64.so.2", 0o755)
	touch(t, dir, "ld-linux-broken", 0o755)
	runner := &verifyRunner{statuses: map[string]int{"ld-linux-x86-64.so.2": 1}}

	_, err := New(dir, "", runner).Resolve(context.Background(), "/usr/bin/tool")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, runner.calls, 2)
}

func TestResolve_MissingLibDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), "", &verifyRunner{}).Resolve(context.Background(), "/x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
