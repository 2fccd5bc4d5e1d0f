// Package ui renders live fuzzing progress with Bubble Tea. It consumes
// driver events from a channel and never touches the fuzzing loop itself.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"whittle/internal/driver"
)

type fuzzModel struct {
	title     string
	events    <-chan driver.Event
	spinner   spinner.Model
	iteration int
	findings  int
	phase     driver.Phase
	lastLines []string
	width     int
	done      bool
}

type eventMsg driver.Event
type doneMsg struct{}

// maxFindingLines caps the finding tail kept on screen.
const maxFindingLines = 5

// NewFuzzModel returns a Bubble Tea model that renders fuzzing progress.
func NewFuzzModel(title string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return &fuzzModel{
		title:   title,
		events:  events,
		spinner: sp,
		width:   80,
	}
}

func (m *fuzzModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *fuzzModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.applyEvent(driver.Event(msg))
		return m, m.listenForEvent()
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil
	}
	return m, nil
}

func (m *fuzzModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	findingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  iteration %d  findings %d  phase %s\n", m.iteration, m.findings, m.phase)
	if len(m.lastLines) > 0 {
		b.WriteString("\n")
		for _, line := range m.lastLines {
			b.WriteString(findingStyle.Render("  " + truncate(line, m.width-4)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *fuzzModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *fuzzModel) applyEvent(ev driver.Event) {
	if ev.Iteration > 0 {
		m.iteration = ev.Iteration
	}
	if ev.Phase != "" {
		m.phase = ev.Phase
	}
	if ev.Findings > m.findings {
		m.findings = ev.Findings
	}
	if ev.Finding != nil {
		line := fmt.Sprintf("%s: %s", ev.Finding.Class, ev.Finding.Message)
		m.lastLines = append(m.lastLines, line)
		if len(m.lastLines) > maxFindingLines {
			m.lastLines = m.lastLines[len(m.lastLines)-maxFindingLines:]
		}
	}
}

func truncate(s string, width int) string {
	if width < 10 {
		width = 10
	}
	return runewidth.Truncate(s, width, "…")
}
