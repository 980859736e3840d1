package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned for absent or expired values.
var ErrNotFound = errors.New("session value not found")

// Store port (session relay storage)
type Store interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, sessionID, key string) (Entry, error)
	Delete(ctx context.Context, sessionID, key string) error
	Ping(ctx context.Context) error
}
