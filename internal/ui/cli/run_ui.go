package cli

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"brokenpkg/internal/ui/report"
)

// runUI scans into a collector and lets the user browse the result. With
// watch set, database changes trigger rescans that update the open view.
func runUI(ctx context.Context, a *app, watch bool) error {
	collector := report.NewCollector()
	var scanMu sync.Mutex
	scan := func() tea.Msg {
		scanMu.Lock()
		defer scanMu.Unlock()
		collector.Reset()
		summary, err := a.scanTo(ctx, collector)
		return scanResultMsg{packages: collector.Packages(), summary: summary, err: err}
	}

	m := initialModel(scan)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if watch {
		go watchInBackground(ctx, a, func(context.Context) {
			p.Send(scanStartedMsg{})
			p.Send(scan())
		})
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
