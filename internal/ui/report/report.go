// Package report renders scan findings for the terminal.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"brokenpkg/internal/core/ports"
)

const (
	fileBranch    = "    └── "
	messageBranch = "        └──"
)

// Renderer writes broken package names to out and the file tree to errOut,
// so that out can be piped into pacman while the details stay visible.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	pkgStyle lipgloss.Style
	msgStyle lipgloss.Style
}

var _ ports.ReportSink = (*Renderer)(nil)

// NewRenderer builds a renderer. Colors are emitted whenever enabled is set,
// whether or not the writers are terminals.
func NewRenderer(out, errOut io.Writer, colors bool) *Renderer {
	profile := termenv.Ascii
	if colors {
		profile = termenv.ANSI
	}
	outRenderer := lipgloss.NewRenderer(out)
	outRenderer.SetColorProfile(profile)
	errRenderer := lipgloss.NewRenderer(errOut)
	errRenderer.SetColorProfile(profile)

	return &Renderer{
		out:      out,
		errOut:   errOut,
		pkgStyle: outRenderer.NewStyle().Foreground(lipgloss.Color("4")).TabWidth(lipgloss.NoTabConversion),
		msgStyle: errRenderer.NewStyle().Foreground(lipgloss.Color("1")).TabWidth(lipgloss.NoTabConversion),
	}
}

func (r *Renderer) PackageHeader(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, r.pkgStyle.Render(name))
	return err
}

func (r *Renderer) FileReport(report ports.BrokenDependencyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.errOut, "%s%s\n", fileBranch, report.File); err != nil {
		return err
	}
	for _, line := range report.Lines {
		text := line.Raw
		if line.HasMessage {
			text = line.Message
		}
		if _, err := fmt.Fprintf(r.errOut, "%s%s\n", messageBranch, r.msgStyle.Render(text)); err != nil {
			return err
		}
	}
	return nil
}

// PrintPaths writes the paths a scan runs against, aligned like pacman's
// own --verbose output.
func PrintPaths(w io.Writer, root, dbPath string) {
	fmt.Fprintf(w, "%-8s : %s\n", "Root", root)
	fmt.Fprintf(w, "%-8s : %s\n", "DB Path", dbPath)
}
