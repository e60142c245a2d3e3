// Package linker locates the dynamic linker able to load a given ELF file.
package linker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/shared/util"
)

const (
	DefaultLibDir = "/lib"
	DefaultPrefix = "ld-linux"
)

// Exit statuses of ld.so --verify that mean the loader can handle the file:
// 0 for a dynamically linked object, 2 for a statically linked one.
const (
	verifyDynamic = 0
	verifyStatic  = 2
)

// ErrNotFound is returned when no candidate accepted the target.
var ErrNotFound = domainerrors.New(domainerrors.CodeNotFound, "no compatible dynamic linker")

type Resolver struct {
	LibDir string
	Prefix string
	Runner ports.Runner
}

var _ ports.LinkerResolver = (*Resolver)(nil)

func New(libDir, prefix string, runner ports.Runner) *Resolver {
	if strings.TrimSpace(libDir) == "" {
		libDir = DefaultLibDir
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{LibDir: libDir, Prefix: prefix, Runner: runner}
}

// Candidates lists loader names in LibDir carrying Prefix, sorted.
func (r *Resolver) Candidates() ([]string, error) {
	entries, err := os.ReadDir(r.LibDir)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeInternal, "list linker directory"),
			domainerrors.CtxPath, r.LibDir)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), r.Prefix) {
			names = append(names, entry.Name())
		}
	}
	// os.ReadDir already sorts by file name.
	return names, nil
}

// Resolve returns the first candidate, in lexical order, that verifies
// target. Systems with multilib carry one loader per ABI and only the
// matching one accepts the file.
func (r *Resolver) Resolve(ctx context.Context, target string) (string, error) {
	names, err := r.Candidates()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		path := filepath.Join(r.LibDir, name)
		info, err := os.Stat(path)
		if err != nil {
			slog.Debug("skipping linker candidate", "path", path, "error", err)
			continue
		}
		if !util.IsUserExecutable(info) {
			continue
		}
		status, err := r.Runner.Run(ctx, []string{path, "--verify", target}, nil, nil)
		if err != nil {
			slog.Debug("linker verification failed", "linker", path, "target", target, "error", err)
			continue
		}
		if status == verifyDynamic || status == verifyStatic {
			return path, nil
		}
	}
	return "", ErrNotFound
}
