package session

import "time"

// Keys used by the relay. A session is one browser session (cookie scoped).
const (
	ResultKey = "analysisResults"
	ReviewKey = "policyReview"
	AlertsKey = "alertsFeed"
)

// Entry is a value stored for one session under one key.
type Entry struct {
	SessionID string
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer readable at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
