package cache

import (
	"context"
	"time"
)

// Store is the atomic key-value store backing the abuse ledger and the IP
// block controller. Incr must be atomic per key: concurrent callers may never
// observe a lost update. Keys expire by TTL; an expired key behaves exactly
// like a missing one.
//
// State lives here rather than in process memory so that multi-instance
// deployments share counters and blocks. The in-memory implementation exists
// for tests and guaranteed single-instance setups.
type Store interface {
	// Incr atomically increments the counter at key and returns the new
	// value. When the increment creates the key, the fixed window starts:
	// the TTL is set once and is not extended by later increments.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// GetCount returns the counter at key, or 0 if the key is missing or expired.
	GetCount(ctx context.Context, key string) (int64, error)

	// Set stores a value with a TTL, replacing any previous value and TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// TTL returns the remaining lifetime of key and whether it exists.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
