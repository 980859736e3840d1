package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")).Bold(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).MarginRight(1)
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
)

func bandStyle(b analysis.Band) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(b.Color())).
		Foreground(lipgloss.Color(b.TextColor())).
		Padding(0, 1)
}

func severityStyle(s analysis.Severity) lipgloss.Style {
	switch s.Normalize() {
	case analysis.SeverityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")).Bold(true)
	case analysis.SeverityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	}
}

// RenderDashboard paints the dashboard view for a terminal.
func RenderDashboard(v dashboard.View) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Compliance dashboard"))
	b.WriteString("\n")
	note := "Generated " + v.GeneratedAt.Format("2006-01-02 15:04")
	if v.UsingSample {
		note += " · sample data, no analysis result available"
	}
	b.WriteString(mutedStyle.Render(note))
	b.WriteString("\n\n")

	cards := make([]string, 0, len(v.Scorecards))
	for _, sc := range v.Scorecards {
		cards = append(cards, cardStyle.Render(fmt.Sprintf("%s\n%s\n%d violations",
			sc.Name, bandStyle(sc.Band).Render(sc.ScoreLabel()), sc.Violations)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Uncertainty flags"))
	b.WriteString("\n")
	if len(v.Uncertainties) == 0 {
		b.WriteString(mutedStyle.Render(dashboard.EmptyUncertainties) + "\n")
	}
	for _, u := range v.Uncertainties {
		fmt.Fprintf(&b, "%s %s\n  %s\n", u.Title, bandStyle(u.Band).Render(u.ConfidenceLabel()+" confidence"), u.Description)
	}

	b.WriteString(headingStyle.Render("Remediation actions"))
	b.WriteString("\n")
	if len(v.Remediation) == 0 {
		b.WriteString(mutedStyle.Render(dashboard.EmptyRemediation) + "\n")
	}
	for _, r := range v.Remediation {
		sev := r.Severity.Normalize()
		line := fmt.Sprintf("[%s] %s", severityStyle(sev).Render(string(sev)), r.Title)
		if r.CanAutoRemediate {
			line += mutedStyle.Render(" (auto-remediation available)")
		}
		b.WriteString(line + "\n")
		if r.Description != "" {
			b.WriteString("  " + r.Description + "\n")
		}
	}

	b.WriteString(headingStyle.Render("Compliance heatmap"))
	b.WriteString("\n")
	b.WriteString(renderHeatmap(v.Heatmap))
	return b.String()
}

func renderHeatmap(h dashboard.Heatmap) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-16s", ""))
	for _, d := range h.Dates {
		b.WriteString(fmt.Sprintf(" %-10s", d))
	}
	b.WriteString("\n")
	for _, f := range h.Frameworks {
		b.WriteString(fmt.Sprintf("%-16s", f))
		for _, c := range h.Row(f) {
			b.WriteString(" " + bandStyle(c.Band).Width(10).Render(fmt.Sprintf("%3d", c.Score)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFast prints a fast analysis outcome.
func RenderFast(out analysis.Outcome[analysis.FastAnalysis]) string {
	if !out.Parsed() {
		return out.Raw + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Fast analysis"))
	b.WriteString("\n" + out.Value.Summary + "\n")
	for _, f := range out.Value.Findings {
		status := errorStyle.Render(f.Status)
		if f.Compliant() {
			status = filledStyle.Render(f.Status)
		}
		fmt.Fprintf(&b, "- %s: %s", f.Type, status)
		if f.Data != "" {
			b.WriteString(mutedStyle.Render(" " + f.Data))
		}
		b.WriteString("\n")
	}
	for _, t := range out.Value.JiraTickets {
		fmt.Fprintf(&b, "ticket %s %s\n", t.Key, t.Summary)
	}
	return b.String()
}

// RenderReflect prints a reflective analysis outcome.
func RenderReflect(out analysis.Outcome[analysis.ReflectAnalysis]) string {
	if !out.Parsed() {
		return out.Raw + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reflective analysis"))
	fmt.Fprintf(&b, "\nstatus %s after %d cycles\n", out.Value.Status, out.Value.Cycles)
	if out.Value.Truncated {
		b.WriteString(mutedStyle.Render("input was truncated") + "\n")
	}
	for _, t := range out.Value.JiraTickets {
		fmt.Fprintf(&b, "ticket %s %s\n", t.Key, t.Summary)
	}
	return b.String()
}
