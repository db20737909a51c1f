package lock

import "time"

const (
	DefaultKeyPrefix      = "lock:"
	DefaultWatchdogTTL    = 30 * time.Second
	DefaultRenewRatio     = 3
	DefaultRetryInterval  = 100 * time.Millisecond
	DefaultRetryJitter    = 20 * time.Millisecond
	DefaultAcquireTimeout = 10 * time.Second
)

// Config holds the lock-domain defaults. Zero fields fall back to the
// package defaults.
type Config struct {
	KeyPrefix      string
	WatchdogTTL    time.Duration
	RenewRatio     int
	RetryInterval  time.Duration
	RetryJitter    time.Duration
	AcquireTimeout time.Duration
	Fair           bool
}

// DefaultConfig returns the package defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:      DefaultKeyPrefix,
		WatchdogTTL:    DefaultWatchdogTTL,
		RenewRatio:     DefaultRenewRatio,
		RetryInterval:  DefaultRetryInterval,
		RetryJitter:    DefaultRetryJitter,
		AcquireTimeout: DefaultAcquireTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.WatchdogTTL <= 0 {
		c.WatchdogTTL = d.WatchdogTTL
	}
	if c.RenewRatio < 2 {
		c.RenewRatio = d.RenewRatio
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.RetryJitter < 0 {
		c.RetryJitter = 0
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = d.AcquireTimeout
	}
	return c
}

type acquireOptions struct {
	leaseDuration  time.Duration
	watchdogTTL    time.Duration
	acquireTimeout time.Duration
	retryInterval  time.Duration
	retryJitter    time.Duration
	fair           bool
}

// AcquireOption overrides a lock-domain default for one acquisition.
type AcquireOption func(*acquireOptions)

// WithLeaseDuration fixes the lease TTL and disables the watchdog.
func WithLeaseDuration(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		o.leaseDuration = d
	}
}

// WithWatchdogTTL sets the TTL the watchdog keeps the lease at.
func WithWatchdogTTL(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		if d > 0 {
			o.watchdogTTL = d
		}
	}
}

// WithAcquireTimeout bounds how long Acquire keeps retrying. Zero means a
// single attempt.
func WithAcquireTimeout(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		if d >= 0 {
			o.acquireTimeout = d
		}
	}
}

// WithRetryInterval sets the pause between attempts.
func WithRetryInterval(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithRetryJitter adds up to plus or minus d to every pause.
func WithRetryJitter(d time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		if d >= 0 {
			o.retryJitter = d
		}
	}
}

// WithFair serves waiters in arrival order.
func WithFair(fair bool) AcquireOption {
	return func(o *acquireOptions) {
		o.fair = fair
	}
}
