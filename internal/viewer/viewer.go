// Package viewer shows a rendered report in a tabbed terminal UI.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/sdpower/ctxgw-report/internal/output"
	"github.com/sdpower/ctxgw-report/internal/types"
)

// ErrNotTerminal is returned by Start when stdout is not a TTY.
var ErrNotTerminal = errors.New("the viewer requires an interactive terminal (TTY)")

// LoadFunc produces one report snapshot.
type LoadFunc func(ctx context.Context) (types.Report, error)

type Options struct {
	Load    LoadFunc
	NoColor bool
	Timeout time.Duration
}

type Viewer struct {
	options Options
}

func New(opts Options) *Viewer {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Viewer{options: opts}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start runs the viewer until the user quits.
func (v *Viewer) Start(ctx context.Context) error {
	if !IsTerminal(os.Stdout) {
		return ErrNotTerminal
	}

	p := tea.NewProgram(
		initialModel(v.options),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type model struct {
	options    Options
	formatter  *output.TableWriterFormatter
	sections   []output.Section
	active     int
	offset     int
	width      int
	height     int
	loading    bool
	lastUpdate time.Time
	err        error
}

type reportMsg struct {
	report types.Report
	at     time.Time
	err    error
}

func initialModel(opts Options) model {
	return model{
		options:   opts,
		formatter: output.NewTableWriterFormatter(opts.NoColor),
		loading:   true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadReport(),
		tea.WindowSize(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "right", "l", "tab":
			m.selectTab(m.active + 1)
		case "left", "h", "shift+tab":
			m.selectTab(m.active - 1)
		case "down", "j":
			m.scroll(1)
		case "up", "k":
			m.scroll(-1)
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.loadReport()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll(0)

	case reportMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.sections = m.formatter.Sections(msg.report)
			m.lastUpdate = msg.at
			m.selectTab(m.active)
			// The refreshed body may be shorter than the old scroll position.
			m.scroll(0)
		}
	}

	return m, nil
}

// selectTab wraps around at both ends.
func (m *model) selectTab(i int) {
	n := len(m.sections)
	if n == 0 {
		m.active = 0
		return
	}
	i = ((i % n) + n) % n
	if i != m.active {
		m.offset = 0
	}
	m.active = i
}

func (m *model) scroll(delta int) {
	maxOffset := len(m.bodyLines()) - m.bodyHeight()
	m.offset += delta
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m model) bodyLines() []string {
	if len(m.sections) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(m.sections[m.active].Body, "\n"), "\n")
}

// bodyHeight leaves room for the tab bar and the footer.
func (m model) bodyHeight() int {
	if m.height == 0 {
		return 1 << 20
	}
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit, 'r' to retry", m.err)
	}
	if m.loading && len(m.sections) == 0 {
		return "Loading gateway telemetry...\n\nPress 'q' to quit"
	}
	if len(m.sections) == 0 {
		return "No gateway telemetry to report.\n\nPress 'q' to quit, 'r' to refresh"
	}

	var content strings.Builder
	content.WriteString(m.renderTabs())
	content.WriteString("\n\n")

	lines := m.bodyLines()
	start := m.offset
	if start > len(lines) {
		start = len(lines)
	}
	end := start + m.bodyHeight()
	if end > len(lines) {
		end = len(lines)
	}
	content.WriteString(strings.Join(lines[start:end], "\n"))
	content.WriteString("\n\n")

	footer := fmt.Sprintf("←/→ switch  ↑/↓ scroll  r refresh  q quit   updated %s", m.lastUpdate.Format("15:04:05"))
	if m.loading {
		footer += "  (refreshing)"
	}
	content.WriteString(m.mutedStyle().Render(footer))
	return content.String()
}

func (m model) renderTabs() string {
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Padding(0, 1)

	if m.options.NoColor {
		activeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
		inactiveStyle = lipgloss.NewStyle().Padding(0, 1)
	}

	tabs := make([]string, len(m.sections))
	for i, s := range m.sections {
		if i == m.active {
			tabs[i] = activeStyle.Render(s.Title)
		} else {
			tabs[i] = inactiveStyle.Render(s.Title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (m model) mutedStyle() lipgloss.Style {
	if m.options.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
}

func (m model) loadReport() tea.Cmd {
	load := m.options.Load
	timeout := m.options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return func() tea.Msg {
		if load == nil {
			return reportMsg{err: errors.New("no report loader configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		report, err := load(ctx)
		return reportMsg{report: report, at: time.Now(), err: err}
	}
}
