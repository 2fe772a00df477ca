package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of requests that carry a
// client-supplied idempotency key, so a retried request replays the first
// response instead of running twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key is already
	// reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the response for a reserved key
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error

	// Lookup returns the recorded response. found is false while the key is
	// unknown or only reserved.
	Lookup(ctx context.Context, key string) (response []byte, found bool, err error)

	// Release drops a reservation so the request can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
