package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bobg/errors"
	"github.com/bobg/retry"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
)

// minFairStaleAfter is the shortest liveness window a fair waiter gets
// between two of its own attempts.
const minFairStaleAfter = 2 * time.Second

// Locker hands out leases on resource keys from a Store.
type Locker struct {
	store Store
	cfg   Config
	clock clock.Clock
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithClock replaces the wall clock used for retries and watchdog ticks.
func WithClock(c clock.Clock) LockerOption {
	return func(l *Locker) {
		l.clock = c
	}
}

// NewLocker constructs a Locker over store with the given lock-domain defaults.
func NewLocker(store Store, cfg Config, opts ...LockerOption) *Locker {
	l := &Locker{
		store: store,
		cfg:   cfg.withDefaults(),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective lock-domain defaults.
func (l *Locker) Config() Config {
	return l.cfg
}

// Acquire claims resource and returns a held Handle.
//
// Without WithLeaseDuration the lease is taken for the watchdog TTL and kept
// alive until Release, loss, or cancellation of ctx. Failed attempts are
// retried every retry interval until the acquire timeout elapses, after which
// ErrAcquisitionTimeout is returned. Store errors fail closed with
// ErrStoreUnavailable.
func (l *Locker) Acquire(ctx context.Context, resource string, opts ...AcquireOption) (*Handle, error) {
	if strings.TrimSpace(resource) == "" {
		return nil, ErrInvalidKey
	}

	o := l.resolve(opts)
	key := l.cfg.KeyPrefix + resource
	token := newToken()

	ttl := o.leaseDuration
	watchdog := ttl <= 0
	if watchdog {
		ttl = o.watchdogTTL
	}

	var fair FairStore
	if o.fair {
		fs, ok := l.store.(FairStore)
		if !ok {
			return nil, ErrFairUnsupported
		}
		fair = fs
	}

	attempt := func(ctx context.Context) (bool, error) {
		if fair == nil {
			return l.store.SetNX(ctx, key, token, ttl)
		}
		now := l.clock.Now()
		return fair.TryAcquireHead(ctx, key, token, ttl, now, now.Add(fairStaleAfter(o.retryInterval)))
	}

	start := l.clock.Now()
	err := l.acquireLoop(ctx, attempt, o)
	metrics.LockAcquireDuration.Observe(l.clock.Since(start).Seconds())

	if fair != nil && err != nil {
		// The winning attempt pops itself; every other outcome leaves us queued.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		if dqErr := fair.Dequeue(cleanupCtx, key, token); dqErr != nil {
			logrus.WithFields(logrus.Fields{"key": key, "token": shortToken(token)}).
				WithError(dqErr).Warn("failed to leave fair lock queue")
		}
		cancel()
	}

	if err != nil {
		l.abandon(ctx, key, token)
		metrics.LockAcquireTotal.WithLabelValues(acquireStatus(err)).Inc()
		return nil, err
	}

	metrics.LockAcquireTotal.WithLabelValues("acquired").Inc()
	metrics.LocksHeld.Inc()

	h := newHandle(ctx, l, Lease{Key: key, Token: token, TTL: ttl, AcquiredAt: l.clock.Now()}, watchdog)
	logrus.WithFields(logrus.Fields{
		"key":      key,
		"token":    shortToken(token),
		"ttl":      ttl,
		"watchdog": watchdog,
		"fair":     o.fair,
	}).Debug("lock acquired")

	if watchdog {
		h.startWatchdog(ttl / time.Duration(l.cfg.RenewRatio))
	}
	return h, nil
}

// acquireLoop runs attempt until it succeeds, the acquire timeout elapses or
// ctx is done. It never recurses.
func (l *Locker) acquireLoop(ctx context.Context, attempt func(context.Context) (bool, error), o acquireOptions) error {
	try := func(ctx context.Context) error {
		ok, err := attempt(ctx)
		if err != nil {
			return errors.Wrap(err, "claiming lease")
		}
		if !ok {
			return errHeld
		}
		return nil
	}

	if o.acquireTimeout == 0 {
		err := try(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errHeld):
			return ErrAcquisitionTimeout
		case ctx.Err() != nil:
			return errors.Wrap(ctx.Err(), "acquiring lock")
		default:
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.acquireTimeout)
	defer cancel()

	tr := retry.Tryer{
		Max:         -1,
		Delay:       o.retryInterval,
		Jitter:      o.retryJitter,
		IsRetryable: func(err error) bool { return errors.Is(err, errHeld) },
		After:       l.clock.After,
	}

	err := tr.Try(waitCtx, func(int) error {
		return try(waitCtx)
	})
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errors.Wrap(ctx.Err(), "acquiring lock")
	case waitCtx.Err() != nil, errors.Is(err, errHeld):
		return ErrAcquisitionTimeout
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// abandon removes a lease that may have been written by an attempt whose
// reply never reached us. The delete is token-conditional, so it can only
// ever touch our own lease.
func (l *Locker) abandon(ctx context.Context, key string, token string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if _, err := l.store.CompareAndDelete(cleanupCtx, key, token); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "token": shortToken(token)}).
			WithError(err).Debug("abandoned lease cleanup failed")
	}
}

func (l *Locker) resolve(opts []AcquireOption) acquireOptions {
	o := acquireOptions{
		watchdogTTL:    l.cfg.WatchdogTTL,
		acquireTimeout: l.cfg.AcquireTimeout,
		retryInterval:  l.cfg.RetryInterval,
		retryJitter:    l.cfg.RetryJitter,
		fair:           l.cfg.Fair,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retryJitter >= o.retryInterval {
		o.retryJitter = o.retryInterval / 2
	}
	return o
}

func fairStaleAfter(retryInterval time.Duration) time.Duration {
	if d := 5 * retryInterval; d > minFairStaleAfter {
		return d
	}
	return minFairStaleAfter
}

func acquireStatus(err error) string {
	switch {
	case errors.Is(err, ErrAcquisitionTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
