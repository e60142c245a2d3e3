package report

import (
	"sync"

	"brokenpkg/internal/core/ports"
)

// PackageReport groups the broken files of one package.
type PackageReport struct {
	Name  string
	Files []ports.BrokenDependencyReport
}

// Collector keeps findings in memory for the interactive browser. It is safe
// for concurrent use.
type Collector struct {
	mu       sync.Mutex
	packages []PackageReport
}

var _ ports.ReportSink = (*Collector)(nil)

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) PackageHeader(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages = append(c.packages, PackageReport{Name: name})
	return nil
}

func (c *Collector) FileReport(report ports.BrokenDependencyReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.packages)
	if n == 0 || c.packages[n-1].Name != report.Package {
		c.packages = append(c.packages, PackageReport{Name: report.Package})
		n++
	}
	c.packages[n-1].Files = append(c.packages[n-1].Files, report)
	return nil
}

// Packages returns a copy of the collected reports in scan order.
func (c *Collector) Packages() []PackageReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PackageReport, len(c.packages))
	for i, p := range c.packages {
		out[i] = PackageReport{Name: p.Name, Files: append([]ports.BrokenDependencyReport(nil), p.Files...)}
	}
	return out
}

// Reset drops everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages = nil
}

// Tee fans every call out to all sinks, stopping at the first error.
type Tee []ports.ReportSink

func (t Tee) PackageHeader(name string) error {
	for _, s := range t {
		if err := s.PackageHeader(name); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) FileReport(report ports.BrokenDependencyReport) error {
	for _, s := range t {
		if err := s.FileReport(report); err != nil {
			return err
		}
	}
	return nil
}
