package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/session"
)

func TestRelayJSONRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := New(session.NewMemoryStore(), application.ClockFunc(func() time.Time { return now }), time.Hour)

	type payload struct{ Score int }
	require.NoError(t, r.PutJSON(ctx, "sid", "k", payload{Score: 78}))

	var got payload
	require.NoError(t, r.GetJSON(ctx, "sid", "k", &got))
	assert.Equal(t, 78, got.Score)

	now = now.Add(time.Hour)
	err := r.GetJSON(ctx, "sid", "k", &got)
	assert.True(t, IsAbsent(err))
}

func TestRelayRejectsEmptySession(t *testing.T) {
	r := New(session.NewMemoryStore(), nil, 0)
	assert.Equal(t, DefaultTTL, r.TTL)
	assert.Error(t, r.PutRaw(context.Background(), "", "k", []byte("v")))

	_, err := r.GetRaw(context.Background(), "", "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRelayDecodeErrorIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	r := New(session.NewMemoryStore(), nil, 0)
	require.NoError(t, r.PutRaw(ctx, "sid", "k", []byte("not json")))

	var v map[string]any
	err := r.GetJSON(ctx, "sid", "k", &v)
	require.Error(t, err)
	assert.False(t, IsAbsent(err))
}
