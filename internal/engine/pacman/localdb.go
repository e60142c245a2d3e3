package pacman

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/core/stream"
)

const (
	localDirName = "local"
	descFile     = "desc"
	filesFile    = "files"
)

// LocalDB reads installed package records from <dbpath>/local.
type LocalDB struct {
	dir     string
	opts    []stream.Option
	entries map[string]string

	mu      sync.Mutex
	lastErr string
}

var _ ports.PackageDB = (*LocalDB)(nil)

// OpenLocalDB indexes every installed package record by its %NAME%.
func OpenLocalDB(dbPath string, opts ...stream.Option) (*LocalDB, error) {
	dir := filepath.Join(dbPath, localDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeStartupConfig, "open local package database"),
			domainerrors.CtxPath, dir)
	}

	db := &LocalDB{dir: dir, opts: opts, entries: make(map[string]string, len(entries))}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, err := db.recordName(entry.Name())
		if err != nil {
			slog.Debug("unreadable package record, deriving name from directory", "entry", entry.Name(), "error", err)
			name = nameFromEntry(entry.Name())
		}
		if name == "" {
			continue
		}
		db.entries[name] = entry.Name()
	}
	return db, nil
}

// LocalDir returns the directory holding the package records.
func (db *LocalDB) LocalDir() string { return db.dir }

// Names returns the indexed package names in lexical order.
func (db *LocalDB) Names() []string {
	names := make([]string, 0, len(db.entries))
	for name := range db.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *LocalDB) recordName(entry string) (string, error) {
	f, err := os.Open(filepath.Join(db.dir, entry, descFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	values, err := readSection(f, "%NAME%", db.opts...)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%s/%s has no %%NAME%%", entry, descFile)
	}
	return values[0], nil
}

// nameFromEntry strips the -pkgver-pkgrel suffix of a record directory.
func nameFromEntry(entry string) string {
	for i := 0; i < 2; i++ {
		idx := strings.LastIndexByte(entry, '-')
		if idx <= 0 {
			return ""
		}
		entry = entry[:idx]
	}
	return entry
}

// FileList returns the installed files of name in database order. Paths are
// relative to the installation root; directories end with a slash.
func (db *LocalDB) FileList(name string) ([]ports.FileEntry, error) {
	entry, ok := db.entries[name]
	if !ok {
		return nil, db.fail(domainerrors.New(domainerrors.CodeQuery, "package not found"), name)
	}

	f, err := os.Open(filepath.Join(db.dir, entry, filesFile))
	if err != nil {
		return nil, db.fail(domainerrors.Wrap(err, domainerrors.CodeQuery, "open file list"), name)
	}
	defer f.Close()

	values, err := readSection(f, "%FILES%", db.opts...)
	if err != nil {
		return nil, db.fail(domainerrors.Wrap(err, domainerrors.CodeQuery, "read file list"), name)
	}

	files := make([]ports.FileEntry, 0, len(values))
	for _, v := range values {
		files = append(files, ports.FileEntry{Path: v, IsDir: strings.HasSuffix(v, "/")})
	}
	return files, nil
}

// LastError describes the most recent failed lookup.
func (db *LocalDB) LastError() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lastErr
}

func (db *LocalDB) fail(err error, name string) error {
	err = domainerrors.AddContext(err, domainerrors.CtxPackage, name)
	db.mu.Lock()
	db.lastErr = err.Error()
	db.mu.Unlock()
	return err
}
