package lock

import (
	"context"
	"time"

	"github.com/bobg/errors"
)

// releaseTimeout bounds the release call made on the guard's exit path.
const releaseTimeout = 5 * time.Second

// WithLock acquires resource, runs body exactly once while the lease is held
// and releases the lease on every exit path, panics included.
//
// body receives the handle context; it is canceled with ErrLeaseLost if the
// watchdog finds the lease gone, and body should stop mutating then. When the
// lease was lost while body ran, WithLock returns body's result together with
// an ErrLeaseLost error even if body itself succeeded.
//
// The guard provides exclusion among callers that use the same lock domain.
// It does not make body's writes atomic with the lease: a crash in the middle
// of body leaves whatever body already wrote.
func WithLock[T any](ctx context.Context, locker *Locker, resource string, body func(ctx context.Context) (T, error), opts ...AcquireOption) (T, error) {
	var zero T

	h, err := locker.Acquire(ctx, resource, opts...)
	if err != nil {
		return zero, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		// Release logs its own failures; the lease then expires on its own.
		_, _ = h.Release(releaseCtx)
	}()

	result, err := body(h.Context())
	if err != nil {
		return result, err
	}
	if h.State() == StateLost {
		return result, errors.Wrapf(ErrLeaseLost, "while holding %s", h.Key())
	}
	return result, nil
}
