package dashboard

import (
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/format"
)

const (
	EmptyUncertainties = "No uncertainty flags detected"
	EmptyRemediation   = "No remediation actions needed"
)

// Scorecard is one framework score box.
type Scorecard struct {
	ID         string
	Name       string
	Score      int
	Violations int
	Band       analysis.Band
}

func (s Scorecard) ScoreLabel() string { return format.Percent(s.Score) }

// UncertaintyFlag asks for a human review. Flags are derived from scores,
// they are not part of the backend payload.
type UncertaintyFlag struct {
	Title       string
	Description string
	Confidence  int
	Band        analysis.Band
}

func (u UncertaintyFlag) ConfidenceLabel() string { return format.Percent(u.Confidence) }

// RemediationAction is a ticket or issue in a uniform shape.
type RemediationAction struct {
	Title            string
	Description      string
	Severity         analysis.Severity
	CanAutoRemediate bool
}

// HeatmapCell is one framework/day score.
type HeatmapCell struct {
	Framework string
	Date      string
	Score     int
	Band      analysis.Band
}

// Heatmap is a frameworks x days grid; Dates run from today backwards.
type Heatmap struct {
	Frameworks []string
	Dates      []string
	Cells      []HeatmapCell
}

// Cell looks up a cell by framework and date.
func (h Heatmap) Cell(framework, date string) (HeatmapCell, bool) {
	for _, c := range h.Cells {
		if c.Framework == framework && c.Date == date {
			return c, true
		}
	}
	return HeatmapCell{}, false
}

// Row returns the cells of one framework in date order.
func (h Heatmap) Row(framework string) []HeatmapCell {
	out := make([]HeatmapCell, 0, len(h.Dates))
	for _, c := range h.Cells {
		if c.Framework == framework {
			out = append(out, c)
		}
	}
	return out
}

// View is everything the dashboard page paints.
type View struct {
	Scorecards    []Scorecard
	Uncertainties []UncertaintyFlag
	Remediation   []RemediationAction
	Heatmap       Heatmap
	Summary       string
	GeneratedAt   time.Time
	UsingSample   bool
}
