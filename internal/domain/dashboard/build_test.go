package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixedNoise int

func (n fixedNoise) Jitter(string, int) int { return int(n) }

func result(docScore, infraScore int, tickets []analysis.Ticket, issues []analysis.Issue) *analysis.Result {
	return &analysis.Result{
		DocumentAnalysis: &analysis.SubAnalysis{
			Raw:       analysis.Raw{Status: "completed", Analysis: "doc summary"},
			Processed: &analysis.Processed{Score: analysis.Score(docScore), Tickets: tickets},
		},
		InfrastructureAnalysis: &analysis.SubAnalysis{
			Processed: &analysis.Processed{Score: analysis.Score(infraScore), Issues: issues},
		},
	}
}

func TestScorecardAmberWithoutTickets(t *testing.T) {
	v := Build(result(78, 90, nil, nil), now, nil)
	require.Len(t, v.Scorecards, 2)

	doc := v.Scorecards[0]
	assert.Equal(t, "ANSSI Hygiene", doc.Name)
	assert.Equal(t, "78%", doc.ScoreLabel())
	assert.Equal(t, analysis.BandAmber, doc.Band)
	assert.Equal(t, 0, doc.Violations)

	infra := v.Scorecards[1]
	assert.Equal(t, "Infrastructure", infra.Name)
	assert.Equal(t, analysis.BandGreen, infra.Band)
	assert.Equal(t, "doc summary", v.Summary)
}

func TestViolationsCountTicketsAndIssues(t *testing.T) {
	v := Build(result(50, 50,
		[]analysis.Ticket{{Title: "a"}, {Title: "b"}},
		[]analysis.Issue{{Title: "c"}}), now, nil)
	assert.Equal(t, 2, v.Scorecards[0].Violations)
	assert.Equal(t, 1, v.Scorecards[1].Violations)
	assert.Equal(t, analysis.BandRed, v.Scorecards[0].Band)
}

func TestInfrastructureFlagThresholdIsStrict(t *testing.T) {
	flags := Build(result(90, 65, nil, nil), now, nil).Uncertainties
	require.Len(t, flags, 1)
	assert.Equal(t, "Infrastructure Security Gaps", flags[0].Title)
	assert.Equal(t, 85, flags[0].Confidence)
	assert.Equal(t, analysis.BandGreen, flags[0].Band)

	assert.Empty(t, Build(result(90, 70, nil, nil), now, nil).Uncertainties)
	assert.Len(t, Build(result(90, 69, nil, nil), now, nil).Uncertainties, 1)
}

func TestDocumentFlagThreshold(t *testing.T) {
	flags := Build(result(79, 95, nil, nil), now, nil).Uncertainties
	require.Len(t, flags, 1)
	assert.Equal(t, "ANSSI Compliance Gap", flags[0].Title)
	assert.Equal(t, "75%", flags[0].ConfidenceLabel())
	assert.Equal(t, analysis.BandAmber, flags[0].Band)

	assert.Empty(t, Build(result(80, 95, nil, nil), now, nil).Uncertainties)
}

func TestRemediationConcatenatesTicketsThenIssues(t *testing.T) {
	v := Build(result(70, 60,
		[]analysis.Ticket{{Title: "Missing encryption requirement", Description: "d1", Severity: "HIGH"}},
		[]analysis.Issue{{Title: "S3 Bucket Misconfiguration", Description: "d2", Severity: "medium", AutoRemediate: true}},
	), now, nil)

	require.Len(t, v.Remediation, 2)
	assert.Equal(t, RemediationAction{Title: "Missing encryption requirement", Description: "d1", Severity: analysis.SeverityHigh}, v.Remediation[0])
	assert.Equal(t, RemediationAction{Title: "S3 Bucket Misconfiguration", Description: "d2", Severity: analysis.SeverityMedium, CanAutoRemediate: true}, v.Remediation[1])
}

func TestNilResultRendersZeroDashboard(t *testing.T) {
	v := Build(nil, now, fixedNoise(5))
	assert.Equal(t, 0, v.Scorecards[0].Score)
	assert.Equal(t, 0, v.Scorecards[1].Violations)
	assert.Len(t, v.Uncertainties, 2)
	assert.Empty(t, v.Remediation)
	assert.Len(t, v.Heatmap.Cells, 21)
}

func TestHeatmapShapeAndTodayScores(t *testing.T) {
	h := Build(result(78, 65, nil, nil), now, fixedNoise(-10)).Heatmap

	assert.Equal(t, []string{"ANSSI", "Infrastructure", "Combined"}, h.Frameworks)
	require.Len(t, h.Dates, 7)
	assert.Equal(t, "2024-03-15", h.Dates[0])
	assert.Equal(t, "2024-03-09", h.Dates[6])
	assert.Len(t, h.Cells, 21)

	today, ok := h.Cell("ANSSI", "2024-03-15")
	require.True(t, ok)
	assert.Equal(t, 78, today.Score)
	combined, _ := h.Cell("Combined", "2024-03-15")
	assert.Equal(t, 72, combined.Score)

	past, _ := h.Cell("Infrastructure", "2024-03-12")
	assert.Equal(t, 55, past.Score)
	assert.Equal(t, analysis.BandRed, past.Band)
	assert.Len(t, h.Row("ANSSI"), 7)
}

func TestHeatmapNoiseIsClamped(t *testing.T) {
	h := BuildHeatmap(98, 3, now, fixedNoise(9))
	high, _ := h.Cell("ANSSI", "2024-03-14")
	assert.Equal(t, 100, high.Score)

	h = BuildHeatmap(98, 3, now, fixedNoise(-10))
	low, _ := h.Cell("Infrastructure", "2024-03-14")
	assert.Equal(t, 0, low.Score)
}

func TestBuildIsIdempotentForFixedPayload(t *testing.T) {
	res := result(78, 65, []analysis.Ticket{{Title: "x"}}, nil)
	a := Build(res, now, fixedNoise(3))
	b := Build(res, now, fixedNoise(-4))
	assert.Equal(t, a.Scorecards, b.Scorecards)
	assert.Equal(t, a.Uncertainties, b.Uncertainties)
	assert.Equal(t, a.Remediation, b.Remediation)
}
