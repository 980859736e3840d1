package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/compliance-dashboard/internal/demo"
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/report"
)

func TestBuildFiltersEvidenceOnly(t *testing.T) {
	s := &Service{Source: demo.Reports{}}

	r := s.Build(domain.Filter{Search: "aws", Type: domain.TypeAll})
	assert.Len(t, r.Evidence, 1)
	assert.Equal(t, 3, r.Total)
	assert.Len(t, r.Timeline, 3)
	assert.Equal(t, 98, r.Latest())
}
