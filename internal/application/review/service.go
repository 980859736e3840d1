package review

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/review"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// Service implements the HITL review use-cases. The review lives in the
// session relay under session.ReviewKey.
type Service struct {
	Relay *relay.Relay
	New   func(now time.Time) *domain.Review
	Clock application.Clock
}

func (s *Service) Get(ctx context.Context, sid string) (*domain.Review, error) {
	var r domain.Review
	err := s.Relay.GetJSON(ctx, sid, session.ReviewKey, &r)
	if err == nil {
		return &r, nil
	}
	if !relay.IsAbsent(err) {
		log.WithError(err).WithField("session", sid).Warn("review unreadable, starting over")
	}
	fresh := s.New(s.Clock.Now())
	return fresh, s.Relay.PutJSON(ctx, sid, session.ReviewKey, fresh)
}

func (s *Service) Approve(ctx context.Context, sid, notes string) (*domain.Review, error) {
	return s.update(ctx, sid, func(r *domain.Review, now time.Time) { r.Approve(notes, now) })
}

func (s *Service) Reject(ctx context.Context, sid, notes string) (*domain.Review, error) {
	return s.update(ctx, sid, func(r *domain.Review, now time.Time) { r.Reject(notes, now) })
}

func (s *Service) Save(ctx context.Context, sid string) (*domain.Review, error) {
	return s.update(ctx, sid, func(r *domain.Review, now time.Time) { r.Save(now) })
}

func (s *Service) update(ctx context.Context, sid string, fn func(*domain.Review, time.Time)) (*domain.Review, error) {
	r, err := s.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	fn(r, s.Clock.Now())
	if err := s.Relay.PutJSON(ctx, sid, session.ReviewKey, r); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"session": sid, "action": r.Audit[0].Action}).Info("review updated")
	return r, nil
}
