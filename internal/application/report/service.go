package report

import (
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/report"
)

// Source supplies evidence, timeline and score history.
type Source interface {
	Evidence() []domain.EvidenceItem
	Timeline() []domain.TimelineEvent
	Scores() []domain.ScorePoint
}

type Service struct {
	Source Source
}

// Build filters the evidence; timeline and scores are returned as-is.
func (s *Service) Build(f domain.Filter) domain.Report {
	all := s.Source.Evidence()
	return domain.Report{
		Evidence: f.Apply(all),
		Timeline: s.Source.Timeline(),
		Scores:   s.Source.Scores(),
		Filter:   f,
		Total:    len(all),
	}
}
