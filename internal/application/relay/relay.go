package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// DefaultTTL bounds how long a browser session keeps its values.
const DefaultTTL = 12 * time.Hour

// Relay hands values from one page to the next within a browser session.
type Relay struct {
	Store session.Store
	Clock application.Clock
	TTL   time.Duration
}

func New(store session.Store, clock application.Clock, ttl time.Duration) *Relay {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Relay{Store: store, Clock: clock, TTL: ttl}
}

// PutRaw stores bytes as-is.
func (r *Relay) PutRaw(ctx context.Context, sid, key string, value []byte) error {
	if sid == "" {
		return fmt.Errorf("relay put %s: empty session id", key)
	}
	err := r.Store.Put(ctx, session.Entry{
		SessionID: sid,
		Key:       key,
		Value:     value,
		ExpiresAt: r.Clock.Now().Add(r.TTL),
	})
	if err != nil {
		return fmt.Errorf("relay put %s: %w", key, err)
	}
	return nil
}

// GetRaw returns session.ErrNotFound for absent or expired values.
func (r *Relay) GetRaw(ctx context.Context, sid, key string) ([]byte, error) {
	if sid == "" {
		return nil, session.ErrNotFound
	}
	e, err := r.Store.Get(ctx, sid, key)
	if err != nil {
		return nil, err
	}
	if e.Expired(r.Clock.Now()) {
		_ = r.Store.Delete(ctx, sid, key)
		return nil, session.ErrNotFound
	}
	return e.Value, nil
}

func (r *Relay) PutJSON(ctx context.Context, sid, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("relay encode %s: %w", key, err)
	}
	return r.PutRaw(ctx, sid, key, b)
}

// GetJSON decodes a stored value into v.
func (r *Relay) GetJSON(ctx context.Context, sid, key string, v any) error {
	b, err := r.GetRaw(ctx, sid, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("relay decode %s: %w", key, err)
	}
	return nil
}

// IsAbsent reports whether err means "nothing stored".
func IsAbsent(err error) bool { return errors.Is(err, session.ErrNotFound) }
