package local

import (
	"context"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/prompt"
)

// Analyzer runs the rule-based policy check in process. It implements
// analysis.FastAnalyzer for offline use.
type Analyzer struct{}

func (Analyzer) FastAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.FastAnalysis], error) {
	if err := ctx.Err(); err != nil {
		return analysis.Outcome[analysis.FastAnalysis]{}, err
	}
	return analysis.DecodeOutcome[analysis.FastAnalysis]([]byte(prompt.AnalyzePolicyText(policy))), nil
}
