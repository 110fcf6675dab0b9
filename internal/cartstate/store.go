package cartstate

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing was persisted under the key.
var ErrNotFound = errors.New("cart state not found")

// StateStore persists serialized cart state under a single key.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Pinger exposes the readiness check surface of a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
