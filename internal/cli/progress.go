package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
)

const barWidth = 40

type tickMsg time.Time

// progressModel shows the presenter of a run. It quits once the animation
// is done and the backend call has returned; until the call returns it
// stays on the last frame with a waiting note.
type progressModel struct {
	run      *workflow.Run
	clock    application.Clock
	tick     time.Duration
	snap     progress.Snapshot
	quitting bool
	finished bool
}

func newProgressModel(run *workflow.Run, clock application.Clock) progressModel {
	return progressModel{
		run:   run,
		clock: clock,
		tick:  run.Presenter.Config().Tick,
		snap:  run.Presenter.Snapshot(clock.Now()),
	}
}

func (m progressModel) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m progressModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		m.snap = m.run.Presenter.Snapshot(m.clock.Now())
		if m.snap.State == progress.StateDone && m.run.Done() {
			m.finished = true
			return m, tea.Quit
		}
		return m, m.tickCmd()
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.quitting {
		return mutedStyle.Render("Interrupted.") + "\n"
	}
	if m.finished {
		return ""
	}
	return renderSnapshot(m.snap, m.snap.State == progress.StateDone && !m.run.Done())
}

func renderSnapshot(s progress.Snapshot, waiting bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analyzing your documents"))
	b.WriteString("\n\n")

	filled := int(s.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := filledStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(&b, "[%s] %s\n", bar, s.PercentLabel())
	if s.Message != "" {
		b.WriteString(s.Message + "\n")
	}
	if s.Fact != "" {
		b.WriteString(mutedStyle.Render(s.Fact) + "\n")
	}
	b.WriteString("\n")
	for _, item := range s.Checklist {
		if item.Visible {
			b.WriteString(filledStyle.Render("✓ ") + item.Label + "\n")
		}
	}
	if waiting {
		b.WriteString("\n" + mutedStyle.Render("Waiting for the analysis service...") + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("q to quit") + "\n")
	return b.String()
}
