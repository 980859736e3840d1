package alerts

import (
	"errors"
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
)

var (
	ErrNotFound      = errors.New("alert not found")
	ErrUnknownAction = errors.New("unknown alert action")
)

// PushInterval is how often the simulated feed delivers a new violation.
const PushInterval = 30 * time.Second

// MaxAlerts bounds a feed; older alerts are dropped first.
const MaxAlerts = 50

type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionAssign      Action = "assign"
	ActionSnooze      Action = "snooze"
)

// ParseAction validates an action name from a route.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAcknowledge, ActionAssign, ActionSnooze:
		return a, nil
	}
	return "", ErrUnknownAction
}

type Alert struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Severity    analysis.Severity `json:"severity"`
	Timestamp   time.Time         `json:"timestamp"`
	Unread      bool              `json:"unread"`
	AssignedTo  string            `json:"assigned_to,omitempty"`
	SnoozedAt   *time.Time        `json:"snoozed_at,omitempty"`
}

// Feed is the per-session alert list, newest first.
type Feed struct {
	StartedAt time.Time `json:"started_at"`
	Pushed    int       `json:"pushed"`
	Alerts    []Alert   `json:"alerts"`
}

// NewFeed seeds a feed with the given alerts.
func NewFeed(seed []Alert, now time.Time) *Feed {
	f := &Feed{StartedAt: now}
	f.Alerts = append(f.Alerts, seed...)
	return f
}

// Sync delivers the simulated pushes due by now and returns how many were
// added.
func (f *Feed) Sync(now time.Time) int {
	if now.Before(f.StartedAt) {
		return 0
	}
	due := int(now.Sub(f.StartedAt) / PushInterval)
	if due-f.Pushed > MaxAlerts {
		// pushes older than the newest MaxAlerts would be dropped anyway
		f.Pushed = due - MaxAlerts
	}
	next := f.maxID() + 1
	added := 0
	for f.Pushed < due {
		f.Pushed++
		at := f.StartedAt.Add(time.Duration(f.Pushed) * PushInterval)
		f.Alerts = append([]Alert{{
			ID:          next,
			Title:       "New security violation detected",
			Description: "Unauthorized access attempt from suspicious IP",
			Severity:    analysis.SeverityHigh,
			Timestamp:   at,
			Unread:      true,
		}}, f.Alerts...)
		next++
		added++
	}
	if len(f.Alerts) > MaxAlerts {
		f.Alerts = f.Alerts[:MaxAlerts]
	}
	return added
}

func (f *Feed) maxID() int {
	id := 0
	for _, a := range f.Alerts {
		if a.ID > id {
			id = a.ID
		}
	}
	return id
}

func (f *Feed) find(id int) (*Alert, error) {
	for i := range f.Alerts {
		if f.Alerts[i].ID == id {
			return &f.Alerts[i], nil
		}
	}
	return nil, ErrNotFound
}

// Apply runs an action against one alert.
func (f *Feed) Apply(id int, action Action, assignee string, now time.Time) (*Alert, error) {
	a, err := f.find(id)
	if err != nil {
		return nil, err
	}
	switch action {
	case ActionAcknowledge:
		a.Unread = false
	case ActionAssign:
		if assignee == "" {
			assignee = "IT team"
		}
		a.AssignedTo = assignee
	case ActionSnooze:
		t := now
		a.SnoozedAt = &t
	default:
		return nil, ErrUnknownAction
	}
	return a, nil
}

// Unread counts unread alerts.
func (f *Feed) Unread() int {
	n := 0
	for _, a := range f.Alerts {
		if a.Unread {
			n++
		}
	}
	return n
}
