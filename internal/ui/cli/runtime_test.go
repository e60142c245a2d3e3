package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var elfHeader = []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}

type fixture struct {
	dir     string
	root    string
	dbPath  string
	config  string
	pacman  string
	badFile string
}

func writeFile(t *testing.T, path string, data []byte, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, mode))
	require.NoError(t, os.Chmod(path, mode))
}

// newFixture lays out an installation root with one foreign package holding
// a clean ELF file, a broken one and a shell script, plus fake pacman and
// dynamic linker executables.
func newFixture(t *testing.T, verboseRoot, verboseDB bool) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		root:   filepath.Join(dir, "root"),
		dbPath: filepath.Join(dir, "db"),
		config: filepath.Join(dir, "brokenpkg.toml"),
		pacman: filepath.Join(dir, "pacman"),
	}
	f.badFile = f.root + "/usr/bin/bad"

	writeFile(t, filepath.Join(f.root, "usr/bin/good"), elfHeader, 0o755)
	writeFile(t, filepath.Join(f.root, "usr/bin/bad"), elfHeader, 0o755)
	writeFile(t, filepath.Join(f.root, "usr/bin/script"), []byte("#!/bin/sh\n"), 0o755)

	entry := filepath.Join(f.dbPath, "local", "tool-1.0-1")
	writeFile(t, filepath.Join(entry, "desc"), []byte("%NAME%\ntool\n\n%VERSION%\n1.0-1\n\n"), 0o644)
	writeFile(t, filepath.Join(entry, "files"), []byte("%FILES%\nusr/\nusr/bin/\nusr/bin/bad\nusr/bin/good\nusr/bin/script\n\n"), 0o644)

	root, db := "", ""
	if verboseRoot {
		root = f.root
	}
	if verboseDB {
		db = f.dbPath
	}
	writeFile(t, f.pacman, []byte(fmt.Sprintf(`#!/bin/sh
case "$1" in
--verbose)
	printf 'Root      : %%s\nConf File : /etc/pacman.conf\nDB Path   : %%s\n' '%s' '%s'
	exit 1 ;;
--root)
	echo tool
	exit 0 ;;
esac
exit 2
`, root, db)), 0o755)

	writeFile(t, filepath.Join(dir, "lib", "ld-linux-test.so.2"), []byte(`#!/bin/sh
case "$1" in
--verify) exit 0 ;;
--list)
	case "$2" in
	*/bad)
		echo "$2: error while loading shared libraries: libgone.so.1: cannot open shared object file: No such file or directory" >&2
		exit 127 ;;
	esac
	printf '\tlinux-vdso.so.1 (0x00007ffc)\n'
	exit 0 ;;
esac
exit 1
`), 0o755)

	writeFile(t, f.config, []byte(fmt.Sprintf(`
[pacman]
binary = %q

[linker]
lib_dir = %q
`, f.pacman, filepath.Join(dir, "lib"))), 0o644)
	return f
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_ReportsBrokenPackage(t *testing.T) {
	f := newFixture(t, true, true)

	code, stdout, stderr := runCLI(t, "--config", f.config, "--no-colors")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "tool\n", stdout)
	assert.Contains(t, stderr, "Root     : "+f.root+"\n")
	assert.Contains(t, stderr, "DB Path  : "+f.dbPath+"\n")
	assert.Contains(t, stderr,
		"    └── "+f.badFile+"\n"+
			"        └── libgone.so.1: cannot open shared object file: No such file or directory\n")
	assert.NotContains(t, stderr, "usr/bin/good\n")
	assert.Equal(t, 1, strings.Count("\n"+stderr, "\n    └── "))
}

func TestRun_ColorsByDefault(t *testing.T) {
	f := newFixture(t, true, true)

	code, stdout, stderr := runCLI(t, "--config", f.config)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "\x1b[34m")
	assert.Contains(t, stderr, "\x1b[31m")

	code, stdout, _ = runCLI(t, "--config", f.config, "--no-colors", "--colors")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "\x1b[34m")
}

func TestRun_FlagsOverridePacmanPaths(t *testing.T) {
	f := newFixture(t, false, false)

	// pacman reports nothing, so the paths must come from the flags.
	code, stdout, stderr := runCLI(t, "--config", f.config, "--no-colors", "-r", f.root, "--dbpath", f.dbPath)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "tool\n", stdout)
}

func TestRun_MissingPacmanPathIsFatal(t *testing.T) {
	f := newFixture(t, true, false)

	code, stdout, stderr := runCLI(t, "--config", f.config)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "STARTUP_CONFIG")
}

func TestRun_MetricsTextfile(t *testing.T) {
	f := newFixture(t, true, true)
	metrics := filepath.Join(f.dir, "brokenpkg.prom")

	code, _, stderr := runCLI(t, "--config", f.config, "--no-colors", "--metrics-textfile", metrics)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "brokenpkg_broken_files_total")
	assert.Contains(t, string(data), "brokenpkg_packages_scanned_total")
}

func TestRun_ExcludedPackageIsSkipped(t *testing.T) {
	f := newFixture(t, true, true)
	t.Setenv("BROKENPKG_SCAN_EXCLUDE_PACKAGES", "to*")

	code, stdout, stderr := runCLI(t, "--config", f.config, "--no-colors")
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)
}

func TestRun_CommandLineErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"help short", []string{"-h"}, 0},
		{"help long", []string{"--help"}, 0},
		{"unknown flag", []string{"--bogus"}, 1},
		{"missing dbpath argument", []string{"-b"}, 1},
		{"missing root argument", []string{"--root"}, 1},
		{"positional argument", []string{"extra"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stdout, "Usage: brokenpkg")
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "brokenpkg v"+versionString+"\n", stdout)
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	code, _, stderr := runCLI(t, "--config", filepath.Join(t.TempDir(), "absent.toml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestParseOptions_ColorsLastWins(t *testing.T) {
	var out bytes.Buffer
	opts, err := parseOptions([]string{"--colors", "--no-colors"}, &out, &out)
	require.NoError(t, err)
	require.NotNil(t, opts.colors)
	assert.False(t, *opts.colors)

	opts, err = parseOptions([]string{"-b", "/db", "-r", "/mnt", "--watch", "--ui"}, &out, &out)
	require.NoError(t, err)
	assert.Equal(t, "/db", opts.dbPath)
	assert.Equal(t, "/mnt", opts.root)
	assert.True(t, opts.watch)
	assert.True(t, opts.ui)
	assert.Nil(t, opts.colors)
}
