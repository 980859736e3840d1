package alerts

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/alerts"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// Service keeps one simulated alert feed per browser session.
type Service struct {
	Relay *relay.Relay
	Seed  func(now time.Time) []domain.Alert
	Clock application.Clock
}

// Feed loads the session feed, seeding it on first use, and delivers the
// pushes due by now.
func (s *Service) Feed(ctx context.Context, sid string) (*domain.Feed, error) {
	now := s.Clock.Now()
	feed, err := s.load(ctx, sid, now)
	if err != nil {
		return nil, err
	}
	if n := feed.Sync(now); n > 0 {
		log.WithFields(log.Fields{"session": sid, "new": n}).Debug("alerts pushed")
	}
	return feed, s.Relay.PutJSON(ctx, sid, session.AlertsKey, feed)
}

func (s *Service) load(ctx context.Context, sid string, now time.Time) (*domain.Feed, error) {
	var feed domain.Feed
	err := s.Relay.GetJSON(ctx, sid, session.AlertsKey, &feed)
	if err == nil {
		return &feed, nil
	}
	if !relay.IsAbsent(err) {
		log.WithError(err).WithField("session", sid).Warn("alerts feed unreadable, reseeding")
	}
	var seed []domain.Alert
	if s.Seed != nil {
		seed = s.Seed(now)
	}
	return domain.NewFeed(seed, now), nil
}

// Act applies an action to one alert.
func (s *Service) Act(ctx context.Context, sid string, id int, action domain.Action, assignee string) (*domain.Alert, error) {
	feed, err := s.Feed(ctx, sid)
	if err != nil {
		return nil, err
	}
	a, err := feed.Apply(id, action, assignee, s.Clock.Now())
	if err != nil {
		return nil, err
	}
	switch action {
	case domain.ActionAssign:
		log.WithFields(log.Fields{"alert": id, "assignee": a.AssignedTo}).Info("alert assigned")
	case domain.ActionSnooze:
		log.WithField("alert", id).Info("alert snoozed")
	}
	return a, s.Relay.PutJSON(ctx, sid, session.AlertsKey, feed)
}
