package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"brokenpkg/internal/engine/scanner"
	"brokenpkg/internal/ui/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	brokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelPackages panelMode = iota
	panelFiles
)

// scanResultMsg carries the outcome of one scan into the model.
type scanResultMsg struct {
	packages []report.PackageReport
	summary  scanner.Summary
	err      error
}

// scanStartedMsg is sent when a scan triggered outside the model begins.
type scanStartedMsg struct{}

type model struct {
	packageList list.Model
	fileList    list.Model
	mode        panelMode
	rescan      tea.Cmd
	scanning    bool

	packages   []report.PackageReport
	summary    scanner.Summary
	scanErr    error
	lastUpdate time.Time
	showDetail bool
}

func initialModel(rescan tea.Cmd) model {
	packageList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	packageList.Title = "Broken Packages"
	packageList.SetShowStatusBar(false)
	packageList.SetFilteringEnabled(true)

	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Broken Files"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		packageList: packageList,
		fileList:    fileList,
		mode:        panelPackages,
		rescan:      rescan,
		scanning:    rescan != nil,
	}
}

func (m model) Init() tea.Cmd {
	return m.rescan
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.packageList.SetSize(width, height)
		m.fileList.SetSize(width, height)
	case scanStartedMsg:
		m.scanning = true
	case scanResultMsg:
		m.scanning = false
		m.packages = msg.packages
		m.summary = msg.summary
		m.scanErr = msg.err
		m.lastUpdate = time.Now()

		items := make([]list.Item, 0, len(m.packages))
		for _, pkg := range m.packages {
			items = append(items, item{
				title: pkg.Name,
				desc:  fmt.Sprintf("%d broken files", len(pkg.Files)),
			})
		}
		m.packageList.SetItems(items)
		m = refreshFiles(m)
	}

	var cmd tea.Cmd
	if m.mode == panelPackages {
		m.packageList, cmd = m.packageList.Update(msg)
	} else {
		m.fileList, cmd = m.fileList.Update(msg)
	}
	return m, cmd
}

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	filtering := m.packageList.FilterState() == list.Filtering || m.fileList.FilterState() == list.Filtering
	if !filtering {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.rescan == nil || m.scanning {
				return m, nil
			}
			m.scanning = true
			return m, m.rescan
		case "tab":
			if m.mode == panelPackages {
				m = refreshFiles(m)
				m.mode = panelFiles
			} else {
				m.mode = panelPackages
				m.showDetail = false
			}
			return m, nil
		case "enter":
			if m.mode == panelPackages {
				m = refreshFiles(m)
				m.mode = panelFiles
				return m, nil
			}
			m.showDetail = !m.showDetail
			return m, nil
		case "esc", "backspace":
			if m.mode == panelFiles {
				if m.showDetail {
					m.showDetail = false
				} else {
					m.mode = panelPackages
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.mode == panelPackages {
		m.packageList, cmd = m.packageList.Update(msg)
	} else {
		m.fileList, cmd = m.fileList.Update(msg)
	}
	return m, cmd
}

// selectedPackage returns the package under the cursor of the package list.
func selectedPackage(m model) (report.PackageReport, bool) {
	selected, ok := m.packageList.SelectedItem().(item)
	if !ok {
		return report.PackageReport{}, false
	}
	for _, pkg := range m.packages {
		if pkg.Name == selected.title {
			return pkg, true
		}
	}
	return report.PackageReport{}, false
}

func refreshFiles(m model) model {
	pkg, ok := selectedPackage(m)
	if !ok {
		m.fileList.SetItems(nil)
		m.showDetail = false
		return m
	}
	items := make([]list.Item, 0, len(pkg.Files))
	for _, f := range pkg.Files {
		desc := ""
		if len(f.Lines) > 0 {
			desc = lineText(f.Lines[0].Raw, f.Lines[0].Message, f.Lines[0].HasMessage)
		}
		items = append(items, item{title: f.File, desc: strings.TrimSpace(desc)})
	}
	m.fileList.Title = "Broken Files: " + pkg.Name
	m.fileList.SetItems(items)
	return m
}

func lineText(raw, message string, hasMessage bool) string {
	if hasMessage {
		return message
	}
	return raw
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d packages | %d files checked",
		m.lastUpdate.Format("15:04:05"), m.summary.Packages, m.summary.FilesChecked))

	var summary string
	switch {
	case m.scanning:
		summary = statusStyle.Render("Scanning...")
	case m.scanErr != nil:
		summary = brokenStyle.Render("Scan failed: " + m.scanErr.Error())
	case len(m.packages) == 0:
		summary = successStyle.Render("No broken packages")
	default:
		summary = brokenStyle.Render(fmt.Sprintf("%d broken packages | %d broken files",
			len(m.packages), m.summary.BrokenFiles))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Broken Package Check"), status, summary)
	help := statusStyle.Render("tab: switch panel | enter: open | esc: back | r: rescan | /: filter | q: quit")

	body := m.packageList.View()
	if m.mode == panelFiles {
		body = m.fileList.View()
		if m.showDetail {
			body += "\n\n" + renderDetail(m)
		}
	}
	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func renderDetail(m model) string {
	pkg, ok := selectedPackage(m)
	if !ok {
		return ""
	}
	idx := m.fileList.Index()
	if idx < 0 || idx >= len(pkg.Files) {
		return ""
	}
	f := pkg.Files[idx]
	var b strings.Builder
	b.WriteString(f.File)
	for _, line := range f.Lines {
		b.WriteString("\n  └──")
		b.WriteString(messageStyle.Render(lineText(line.Raw, line.Message, line.HasMessage)))
	}
	return b.String()
}
