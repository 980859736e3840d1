package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, domain.Entry{SessionID: "a", Key: domain.ResultKey, Value: []byte(`{}`), ExpiresAt: now.Add(time.Hour)}))

	e, err := s.Get(ctx, "a", domain.ResultKey)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(e.Value))

	_, err = s.Get(ctx, "b", domain.ResultKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a", domain.ResultKey))
	_, err = s.Get(ctx, "a", domain.ResultKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, domain.Entry{SessionID: "a", Key: "k", Value: []byte("v"), ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, s.Put(ctx, domain.Entry{SessionID: "a", Key: "keep", Value: []byte("v")}))

	now = now.Add(time.Minute)
	_, err := s.Get(ctx, "a", "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte("abc")
	require.NoError(t, s.Put(ctx, domain.Entry{SessionID: "a", Key: "k", Value: v}))
	v[0] = 'x'

	e, err := s.Get(ctx, "a", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(e.Value))
}
