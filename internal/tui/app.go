// Package tui provides the terminal user interface for watching a research
// run. It is a read-only progress view: the phase checklist, an activity
// log, and a running cost footer. Users can only quit with 'q' or Ctrl+C.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentlaboratory/agentlab/pkg/models"
)

// PhaseStartMsg is sent when a workflow phase begins.
type PhaseStartMsg struct {
	Phase models.Phase
}

// PhaseDoneMsg is sent when a workflow phase completes.
type PhaseDoneMsg struct {
	Stats models.PhaseStats
}

// LogMsg adds a line to the activity log.
type LogMsg struct {
	Timestamp time.Time
	Message   string
}

// RunDoneMsg signals that the workflow has finished.
type RunDoneMsg struct {
	Err error
}

// phaseState tracks one phase's progress in the checklist.
type phaseState struct {
	phase models.Phase
	done  bool
	stats models.PhaseStats
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

// App is the bubbletea model for a research run.
type App struct {
	topic   string
	phases  []phaseState
	current models.Phase
	spin    spinner.Model
	logs    []LogMsg
	width   int

	done     bool
	err      error
	quitting bool
}

// New creates an App showing the given phases in order.
func New(topic string, phases []models.Phase) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	states := make([]phaseState, len(phases))
	for i, p := range phases {
		states[i] = phaseState{phase: p}
	}
	return &App{
		topic:  topic,
		phases: states,
		spin:   s,
		width:  80,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spin.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case PhaseStartMsg:
		a.current = msg.Phase

	case PhaseDoneMsg:
		for i := range a.phases {
			if a.phases[i].phase == msg.Stats.Phase {
				a.phases[i].done = true
				a.phases[i].stats = msg.Stats
			}
		}
		if a.current == msg.Stats.Phase {
			a.current = ""
		}

	case LogMsg:
		a.logs = append(a.logs, msg)
		if len(a.logs) > 8 {
			a.logs = a.logs[len(a.logs)-8:]
		}

	case RunDoneMsg:
		a.done = true
		a.err = msg.Err
		return a, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Stopped.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Agent Laboratory") + "\n")
	b.WriteString(pendingStyle.Render(a.topic) + "\n\n")

	for _, p := range a.phases {
		switch {
		case p.done:
			fmt.Fprintf(&b, "  %s %s  (%.0fs, $%.4f)\n",
				doneStyle.Render("✓"), p.phase.Title(), p.stats.Seconds, p.stats.CostUSD)
		case p.phase == a.current:
			fmt.Fprintf(&b, "  %s %s\n", a.spin.View(), runningStyle.Render(p.phase.Title()))
		default:
			fmt.Fprintf(&b, "  %s %s\n", pendingStyle.Render("·"), pendingStyle.Render(p.phase.Title()))
		}
	}

	if len(a.logs) > 0 {
		b.WriteString("\n")
		for _, l := range a.logs {
			fmt.Fprintf(&b, "  %s %s\n",
				pendingStyle.Render(l.Timestamp.Format("15:04:05")), l.Message)
		}
	}

	b.WriteString("\n")
	switch {
	case a.done && a.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("Run failed: %v", a.err)) + "\n")
	case a.done:
		b.WriteString(doneStyle.Render("Run complete.") + "\n")
	default:
		b.WriteString(footerStyle.Render(fmt.Sprintf("cost so far: $%.4f  ·  press q to quit", a.totalCost())) + "\n")
	}
	return b.String()
}

func (a *App) totalCost() float64 {
	total := 0.0
	for _, p := range a.phases {
		total += p.stats.CostUSD
	}
	return total
}
