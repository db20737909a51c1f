package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
)

// Handle is one successful acquisition. It belongs to the goroutine that
// acquired it.
type Handle struct {
	locker   *Locker
	lease    Lease
	watchdog bool

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu    sync.Mutex
	state State

	stopOnce  sync.Once
	stopRenew chan struct{}
	renewDone chan struct{}
}

func newHandle(ctx context.Context, l *Locker, lease Lease, watchdog bool) *Handle {
	hctx, cancel := context.WithCancelCause(ctx)
	return &Handle{
		locker:    l,
		lease:     lease,
		watchdog:  watchdog,
		ctx:       hctx,
		cancel:    cancel,
		state:     StateHeld,
		stopRenew: make(chan struct{}),
		renewDone: make(chan struct{}),
	}
}

// Key returns the full store key of the lease.
func (h *Handle) Key() string { return h.lease.Key }

// Token returns the holder token.
func (h *Handle) Token() string { return h.lease.Token }

// Lease returns a copy of the lease.
func (h *Handle) Lease() Lease { return h.lease }

// Watchdog reports whether the lease is renewed automatically.
func (h *Handle) Watchdog() bool { return h.watchdog }

// State returns the local view of the handle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Context is canceled when the handle is released, when the acquiring context
// is done, or with cause ErrLeaseLost once the lease is known to be gone.
// Critical sections should stop mutating when it is done.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Validate re-reads the lease from the store. A lease found missing or owned
// by another token marks the handle lost.
func (h *Handle) Validate(ctx context.Context) (bool, error) {
	value, ok, err := h.locker.store.Get(ctx, h.lease.Key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if ok && value == h.lease.Token {
		return true, nil
	}
	h.markLost("validation found lease missing or reassigned")
	return false, nil
}

// Release deletes the lease if, and only if, the store still holds this
// handle's token. Releasing twice, or after the lease expired, returns
// NotHeld without error.
func (h *Handle) Release(ctx context.Context) (ReleaseResult, error) {
	h.mu.Lock()
	if h.state != StateHeld && h.state != StateLost {
		h.mu.Unlock()
		metrics.LockReleaseTotal.WithLabelValues(NotHeld.String()).Inc()
		return NotHeld, nil
	}
	h.state = StateReleasing
	h.mu.Unlock()

	h.stopWatchdog()
	defer h.cancel(nil)

	deleted, err := h.locker.store.CompareAndDelete(ctx, h.lease.Key, h.lease.Token)

	h.mu.Lock()
	h.state = StateReleased
	h.mu.Unlock()
	metrics.LocksHeld.Dec()

	log := logrus.WithFields(logrus.Fields{
		"key":   h.lease.Key,
		"token": shortToken(h.lease.Token),
	})
	if err != nil {
		metrics.LockReleaseTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("lock release failed, lease will expire on its own")
		return NotHeld, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !deleted {
		metrics.LockReleaseTotal.WithLabelValues(NotHeld.String()).Inc()
		log.Debug("lock release was a no-op")
		return NotHeld, nil
	}

	metrics.LockReleaseTotal.WithLabelValues(Released.String()).Inc()
	log.Debug("lock released")
	return Released, nil
}

// markLost moves a held handle to StateLost and cancels its context with
// ErrLeaseLost.
func (h *Handle) markLost(reason string) {
	h.mu.Lock()
	if h.state != StateHeld {
		h.mu.Unlock()
		return
	}
	h.state = StateLost
	h.mu.Unlock()

	h.cancel(ErrLeaseLost)
	logrus.WithFields(logrus.Fields{
		"key":   h.lease.Key,
		"token": shortToken(h.lease.Token),
	}).Warn("lease lost: " + reason)
}
