// Package scanner checks the executables of installed packages for shared
// library dependencies the dynamic linker cannot resolve.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/core/stream"
	"brokenpkg/internal/engine/linker"
	"brokenpkg/internal/shared/observability"
	"brokenpkg/internal/shared/util"
)

type Options struct {
	// Root is prepended to every file list entry.
	Root      string
	ChunkSize int
	// IgnoreFiles matches absolute paths that are never inspected.
	IgnoreFiles util.Patterns
	// IncludePackages, when not empty, limits ScanAll to matching names.
	IncludePackages util.Patterns
	ExcludePackages util.Patterns
}

type Scanner struct {
	db      ports.PackageDB
	linkers ports.LinkerResolver
	runner  ports.Runner
	sink    ports.ReportSink
	opts    Options
}

// PackageResult is the outcome of scanning one package.
type PackageResult struct {
	Name         string
	FilesChecked int
	Broken       []ports.BrokenDependencyReport
}

// Summary aggregates one ScanAll run.
type Summary struct {
	RunID          string
	Packages       int
	Filtered       int
	QueryErrors    int
	FilesChecked   int
	BrokenFiles    int
	BrokenPackages []string
	Duration       time.Duration
}

func New(db ports.PackageDB, linkers ports.LinkerResolver, runner ports.Runner, sink ports.ReportSink, opts Options) *Scanner {
	return &Scanner{db: db, linkers: linkers, runner: runner, sink: sink, opts: opts}
}

// Wanted reports whether the package filters select name.
func (s *Scanner) Wanted(name string) bool {
	if !s.opts.IncludePackages.Empty() && !s.opts.IncludePackages.Match(name) {
		return false
	}
	return !s.opts.ExcludePackages.Match(name)
}

// ScanAll scans names in order. Packages whose file list cannot be read are
// logged and skipped; only sink failures and cancellation abort the run.
func (s *Scanner) ScanAll(ctx context.Context, names []string) (summary Summary, err error) {
	summary.RunID = uuid.NewString()
	logger := slog.With("run", summary.RunID)
	ctx, span := observability.Tracer.Start(ctx, "scanner.ScanAll", observability.RunAttributes(summary.RunID))
	defer span.End()

	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start)
		observability.ScanDuration.Observe(summary.Duration.Seconds())
	}()

	logger.Info("scan started", "packages", len(names))
	for _, name := range names {
		if err = ctx.Err(); err != nil {
			return summary, err
		}
		if !s.Wanted(name) {
			summary.Filtered++
			logger.Debug("package filtered", "package", name)
			continue
		}

		var res PackageResult
		res, err = s.ScanPackage(ctx, name)
		if err != nil {
			if domainerrors.IsCode(err, domainerrors.CodeQuery) {
				summary.QueryErrors++
				logger.Warn("failed to get file list", "package", name, "error", s.db.LastError())
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
		summary.Packages++
		summary.FilesChecked += res.FilesChecked
		summary.BrokenFiles += len(res.Broken)
		if len(res.Broken) > 0 {
			summary.BrokenPackages = append(summary.BrokenPackages, name)
		}
	}

	observability.BrokenPackages.Set(float64(len(summary.BrokenPackages)))
	span.SetAttributes(
		attribute.Int("brokenpkg.packages", summary.Packages),
		attribute.Int("brokenpkg.broken_packages", len(summary.BrokenPackages)),
	)
	logger.Info("scan finished",
		"packages", summary.Packages,
		"filtered", summary.Filtered,
		"query_errors", summary.QueryErrors,
		"files", summary.FilesChecked,
		"broken_files", summary.BrokenFiles,
		"broken_packages", len(summary.BrokenPackages),
	)
	return summary, nil
}

// ScanPackage checks every ELF executable of one package and reports broken
// files to the sink. The package header is sent once, before the first broken
// file; a clean package produces no sink calls.
func (s *Scanner) ScanPackage(ctx context.Context, name string) (PackageResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanner.ScanPackage",
		trace.WithAttributes(attribute.String("brokenpkg.package", name)))
	defer span.End()

	res := PackageResult{Name: name}
	files, err := s.db.FileList(name)
	if err != nil {
		observability.PackageQueryErrorsTotal.Inc()
		span.RecordError(err)
		return res, err
	}
	observability.PackagesScannedTotal.Inc()

	for _, entry := range files {
		if entry.IsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := joinRoot(s.opts.Root, entry.Path)
		if s.opts.IgnoreFiles.Match(path) {
			slog.Debug("file ignored", "package", name, "path", path)
			continue
		}
		if !s.isCandidate(path) {
			continue
		}

		ld, err := s.linkers.Resolve(ctx, path)
		if err != nil {
			if errors.Is(err, linker.ErrNotFound) {
				observability.LinkerNotFoundTotal.Inc()
			}
			slog.Debug("no linker for file", "package", name, "path", path, "error", err)
			continue
		}

		res.FilesChecked++
		observability.FilesCheckedTotal.Inc()
		lines, err := s.listDependencies(ctx, ld, path)
		if err != nil {
			slog.Warn("dependency listing failed", "package", name, "path", path, "linker", ld, "error", err)
			continue
		}
		if len(lines) == 0 {
			continue
		}

		report := ports.BrokenDependencyReport{Package: name, File: path, Lines: lines}
		if len(res.Broken) == 0 {
			if err := s.sink.PackageHeader(name); err != nil {
				return res, fmt.Errorf("write package header: %w", err)
			}
		}
		res.Broken = append(res.Broken, report)
		observability.BrokenFilesTotal.Inc()
		if err := s.sink.FileReport(report); err != nil {
			return res, fmt.Errorf("write file report: %w", err)
		}
	}

	span.SetAttributes(
		attribute.Int("brokenpkg.files", res.FilesChecked),
		attribute.Int("brokenpkg.broken_files", len(res.Broken)),
	)
	return res, nil
}

// isCandidate reports whether path is a user-executable ELF file. Failures
// are soft: the file is skipped.
func (s *Scanner) isCandidate(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("stat failed", "path", path, "error", err)
		return false
	}
	if !util.IsUserExecutable(info) {
		return false
	}
	ok, err := hasELFMagic(path)
	if err != nil {
		slog.Debug("read failed", "path", path, "error", err)
		return false
	}
	return ok
}

func (s *Scanner) listDependencies(ctx context.Context, ld, path string) ([]ports.DiagnosticLine, error) {
	c := &correlator{}
	var opts []stream.Option
	if s.opts.ChunkSize > 0 {
		opts = append(opts, stream.WithChunkSize(s.opts.ChunkSize))
	}
	_, err := s.runner.Run(ctx, []string{ld, "--list", path}, nil, func(r io.Reader) error {
		return stream.Consume(r, diagnosticDelims, c, opts...)
	})
	if err != nil {
		return nil, err
	}
	return c.Lines(), nil
}

// joinRoot places exactly one '/' between root and name.
func joinRoot(root, name string) string {
	root = strings.TrimRight(root, "/")
	name = strings.TrimLeft(name, "/")
	return root + "/" + name
}
