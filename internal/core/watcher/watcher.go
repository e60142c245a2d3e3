// Package watcher reports which package database entries changed on disk.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"brokenpkg/internal/shared/observability"
	"brokenpkg/internal/shared/util"
)

// Watcher watches a pacman local database directory. Every entry directory
// (name-version-release) is watched as well, so edits to desc and files
// records are seen. Changes are debounced and delivered as entry names.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	root         string
	debounce     time.Duration
	excludeFiles util.Patterns
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(debounce time.Duration, excludeFiles []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiled, err := util.CompilePatterns(excludeFiles)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		excludeFiles: compiled,
		onChange:     onChange,
		pending:      make(map[string]time.Time),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch starts watching root and its entry directories.
func (w *Watcher) Watch(root string) error {
	w.root = filepath.Clean(root)
	if err := w.fsWatcher.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := w.fsWatcher.Add(filepath.Join(w.root, entry.Name())); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			entry, ok := w.entryOf(event.Name)
			if !ok {
				continue
			}

			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.root {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err != nil {
						slog.Warn("failed to watch new package entry", "path", event.Name, "error", err)
					}
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) {
				w.scheduleChange(entry)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// entryOf maps a path below root to its entry directory name.
func (w *Watcher) entryOf(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	entry, _, _ := strings.Cut(rel, string(filepath.Separator))
	return entry, entry != ""
}

func (w *Watcher) scheduleChange(entry string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[entry] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	entries := make([]string, 0, len(w.pending))
	for entry := range w.pending {
		entries = append(entries, entry)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(entries) > 0 {
		sort.Strings(entries)
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(entries)
	}
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	return w.excludeFiles.Match(filepath.Base(path))
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
