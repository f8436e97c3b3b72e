package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/progress"
)

// Model is the progress view of a single non-interactive batch.
type Model struct {
	updates  <-chan ocr.Outcome
	cancel   func()
	started  time.Time
	width    int
	tracker  progress.Tracker
	errors   int
	empty    int
	last     string
	stopping bool
	quitting bool
}

type doneMsg struct{}

type updateMsg ocr.Outcome

// NewModel shows progress for total tasks. The terminal is in raw mode while
// it runs, so ctrl+c arrives as a key and is turned into a call to cancel;
// the view keeps draining updates until the batch closes the channel.
func NewModel(total int, updates <-chan ocr.Outcome, cancel func()) Model {
	m := Model{updates: updates, cancel: cancel, started: time.Now()}
	m.tracker.Reset(total)
	return m
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		switch msg.Kind {
		case ocr.OutcomeEmpty:
			m.empty++
		case ocr.OutcomeError:
			m.errors++
		}
		m.last = filepath.Base(msg.Path)
		m.tracker.Done()
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	bar := renderBar(barWidth(m.width), m.tracker.Ratio())
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("ocrdrop"),
		labelStyle.Render(m.tracker.String()) + dimStyle.Render(fmt.Sprintf("  empty:%d errors:%d", m.empty, m.errors)),
		dimStyle.Render(fmt.Sprintf("Last: %s", m.last)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
	}
	if m.stopping {
		lines = append(lines, warnStyle.Render("Stopping, waiting for running tasks..."))
	}
	percent := labelStyle.Render(fmt.Sprintf("%3d%%", m.tracker.Percent()))
	lines = append(lines, barStyle.Render(bar)+" "+percent)

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan ocr.Outcome) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func barWidth(termWidth int) int {
	width := 40
	if termWidth > 0 {
		width = int(math.Min(60, float64(termWidth-16)))
		if width < 20 {
			width = 20
		}
	}
	return width
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle    = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	okStyle     = lipgloss.NewStyle().Foreground(ColorSuccess)
	promptStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)
