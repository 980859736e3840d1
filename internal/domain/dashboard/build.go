package dashboard

import (
	"math"
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

const (
	FrameworkANSSI          = "ANSSI"
	FrameworkInfrastructure = "Infrastructure"
	FrameworkCombined       = "Combined"

	HeatmapDays = 7

	documentFlagThreshold       = 80
	infrastructureFlagThreshold = 70
)

// NoiseSource supplies the jitter for heatmap days without real data.
// Values are expected in [-10, 9].
type NoiseSource interface {
	Jitter(framework string, daysAgo int) int
}

// Build turns a result into the dashboard view. A nil result renders the
// zero-score dashboard. The output is deterministic for a given noise.
func Build(res *analysis.Result, now time.Time, noise NoiseSource) View {
	if res == nil {
		res = &analysis.Result{}
	}
	doc, infra := res.DocumentAnalysis, res.InfrastructureAnalysis

	v := View{GeneratedAt: now}
	v.Scorecards = Scorecards(doc, infra)
	v.Uncertainties = Uncertainties(doc, infra)
	v.Remediation = Remediation(doc, infra)
	v.Heatmap = BuildHeatmap(doc.Score(), infra.Score(), now, noise)
	if doc != nil {
		v.Summary = doc.Raw.Analysis
	}
	if v.Summary == "" {
		v.Summary = res.Analysis
	}
	return v
}

func Scorecards(doc, infra *analysis.SubAnalysis) []Scorecard {
	cards := []Scorecard{
		{ID: "anssi", Name: "ANSSI Hygiene", Score: doc.Score(), Violations: len(doc.TicketList())},
		{ID: "infra", Name: "Infrastructure", Score: infra.Score(), Violations: len(infra.IssueList())},
	}
	for i := range cards {
		cards[i].Band = analysis.BandFor(cards[i].Score)
	}
	return cards
}

func Uncertainties(doc, infra *analysis.SubAnalysis) []UncertaintyFlag {
	var out []UncertaintyFlag
	if doc.Score() < documentFlagThreshold {
		out = append(out, UncertaintyFlag{
			Title:       "ANSSI Compliance Gap",
			Description: "Some ANSSI requirements may not be properly addressed in the security policy",
			Confidence:  75,
		})
	}
	if infra.Score() < infrastructureFlagThreshold {
		out = append(out, UncertaintyFlag{
			Title:       "Infrastructure Security Gaps",
			Description: "Infrastructure configurations may have security weaknesses that need addressing",
			Confidence:  85,
		})
	}
	for i := range out {
		out[i].Band = analysis.BandFor(out[i].Confidence)
	}
	return out
}

// Remediation concatenates document tickets then infrastructure issues.
func Remediation(doc, infra *analysis.SubAnalysis) []RemediationAction {
	var out []RemediationAction
	for _, t := range doc.TicketList() {
		out = append(out, toAction(t))
	}
	for _, i := range infra.IssueList() {
		out = append(out, toAction(i))
	}
	return out
}

func toAction(t analysis.Ticket) RemediationAction {
	return RemediationAction{
		Title:            t.Title,
		Description:      t.Description,
		Severity:         t.Severity.Normalize(),
		CanAutoRemediate: t.AutoRemediate,
	}
}

// BuildHeatmap lays out 3 frameworks x 7 trailing days. Today's cells carry
// the real scores; earlier days are base score plus noise, clamped.
func BuildHeatmap(docScore, infraScore int, now time.Time, noise NoiseSource) Heatmap {
	combined := int(math.Round(float64(docScore+infraScore) / 2))
	bases := map[string]int{
		FrameworkANSSI:          docScore,
		FrameworkInfrastructure: infraScore,
		FrameworkCombined:       combined,
	}

	h := Heatmap{Frameworks: []string{FrameworkANSSI, FrameworkInfrastructure, FrameworkCombined}}
	for i := 0; i < HeatmapDays; i++ {
		h.Dates = append(h.Dates, now.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	for _, fw := range h.Frameworks {
		for i, date := range h.Dates {
			score := bases[fw]
			if i > 0 && noise != nil {
				score = analysis.ClampScore(score + noise.Jitter(fw, i))
			}
			h.Cells = append(h.Cells, HeatmapCell{
				Framework: fw,
				Date:      date,
				Score:     score,
				Band:      analysis.BandFor(score),
			})
		}
	}
	return h
}
