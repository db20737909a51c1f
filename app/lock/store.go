package lock

import (
	"context"
	"time"
)

// Store abstracts the key-value backend leases live in. Every method must be
// atomic with respect to the single key it touches.
type Store interface {
	// SetNX stores value under key with the given TTL only if key is absent.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	// Get returns the live value of key, or ok=false if it is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// CompareAndDelete deletes key only if it currently holds expected.
	CompareAndDelete(ctx context.Context, key string, expected string) (bool, error)
	// CompareAndExpire resets the TTL of key only if it currently holds expected.
	CompareAndExpire(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error)
	// Expire resets the TTL of key regardless of its value. It is the raw
	// EXPIRE primitive of the backend; Locker never calls it because a renewal
	// must check ownership, which CompareAndExpire does.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// FairStore is a Store that can keep an ordered queue of waiters per key.
type FairStore interface {
	Store
	// TryAcquireHead enqueues token if needed, refreshes its liveness
	// deadline to staleAt, drops waiters whose deadline is before now, and
	// claims key only when token is at the head of the queue.
	TryAcquireHead(ctx context.Context, key string, token string, ttl time.Duration, now time.Time, staleAt time.Time) (bool, error)
	// Dequeue removes token from the waiter queue of key.
	Dequeue(ctx context.Context, key string, token string) error
}
