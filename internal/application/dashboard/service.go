package dashboard

import (
	"context"
	"encoding/json"

	"github.com/apex/log"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// SampleSource supplies the fallback payload.
type SampleSource interface {
	Sample() *analysis.Result
}

// Service renders the results dashboard from the session relay.
type Service struct {
	Relay   *relay.Relay
	Samples SampleSource
	Noise   domain.NoiseSource
	Clock   application.Clock
}

// Result reads the stored payload. Absent or unparseable payloads fall back
// to the sample; the second return value reports that.
func (s *Service) Result(ctx context.Context, sid string) (*analysis.Result, bool) {
	logger := log.WithField("session", sid)

	raw, err := s.Relay.GetRaw(ctx, sid, session.ResultKey)
	if err != nil {
		if relay.IsAbsent(err) {
			logger.Debug("no analysis data in session, using sample")
		} else {
			logger.WithError(err).Warn("read analysis data, using sample")
		}
		return s.Samples.Sample(), true
	}

	var res analysis.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		logger.WithError(err).Debug("analysis data does not parse, using sample")
		return s.Samples.Sample(), true
	}
	return &res, false
}

// View builds the dashboard view-model.
func (s *Service) View(ctx context.Context, sid string) domain.View {
	res, sample := s.Result(ctx, sid)
	v := domain.Build(res, s.Clock.Now(), s.Noise)
	v.UsingSample = sample
	return v
}
