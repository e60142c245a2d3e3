package ports

import (
	"context"
	"io"
)

// Consumer drains one output stream of a child process.
type Consumer func(io.Reader) error

// Runner spawns a child from an explicit argument vector and hands its
// standard output and standard error to the given consumers. The returned
// status is the child's exit code, or a negative sentinel when the child could
// not be spawned, reaped, or was killed by a signal.
type Runner interface {
	Run(ctx context.Context, argv []string, stdout, stderr Consumer) (int, error)
}

// FileEntry is one entry of a package's installed file list. Path is relative
// to the installation root.
type FileEntry struct {
	Path  string
	IsDir bool
}

// PackageDB resolves installed package names to their file lists.
type PackageDB interface {
	FileList(name string) ([]FileEntry, error)
	LastError() string
}

// LinkerResolver picks a dynamic linker able to load a target ELF file.
type LinkerResolver interface {
	Resolve(ctx context.Context, target string) (string, error)
}

// DiagnosticLine is one line of dynamic linker error output.
type DiagnosticLine struct {
	// Raw is the complete line without its terminator.
	Raw string
	// Message is the text from the third colon separated field onward.
	Message string
	// HasMessage is false when the line had fewer than two colons.
	HasMessage bool
}

// BrokenDependencyReport describes one executable whose shared library
// dependencies did not resolve.
type BrokenDependencyReport struct {
	Package string
	File    string
	Lines   []DiagnosticLine
}

// ReportSink receives scan findings as they are produced. PackageHeader is
// called once per broken package, before its first FileReport.
type ReportSink interface {
	PackageHeader(name string) error
	FileReport(report BrokenDependencyReport) error
}
