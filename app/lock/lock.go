// Package lock implements a lease-based distributed lock on top of a shared
// key-value store.
//
// A lease is a key holding a random holder token with a TTL. Acquisition is a
// single set-if-absent, release is a single compare-and-delete, and leases
// taken without an explicit duration are kept alive by a watchdog that
// extends the TTL while the holder is still running.
package lock

import (
	"time"

	"github.com/bobg/errors"
	"github.com/google/uuid"
)

var (
	// ErrAcquisitionTimeout is returned when the lock could not be obtained
	// within the acquire timeout.
	ErrAcquisitionTimeout = errors.New("lock acquisition timed out")
	// ErrLeaseLost is the cancellation cause of a handle's context once the
	// lease is known to be no longer owned by the handle.
	ErrLeaseLost = errors.New("lease lost")
	// ErrStoreUnavailable wraps every error coming back from the store.
	ErrStoreUnavailable = errors.New("lock store unavailable")
	// ErrFairUnsupported is returned when fair acquisition is requested on a
	// store without waiter queues.
	ErrFairUnsupported = errors.New("lock store does not support fair acquisition")
	// ErrInvalidKey is returned for an empty resource key.
	ErrInvalidKey = errors.New("lock resource key is required")
)

// errHeld marks an attempt that lost the race; it never leaves the package.
var errHeld = errors.New("lease held by another holder")

// Lease is one outstanding claim on a resource key.
type Lease struct {
	Key        string
	Token      string
	TTL        time.Duration
	AcquiredAt time.Time
}

// State is the lifecycle state of a Handle.
type State int

const (
	StateUnacquired State = iota
	StateHeld
	StateReleasing
	StateReleased
	StateLost
)

func (s State) String() string {
	switch s {
	case StateUnacquired:
		return "unacquired"
	case StateHeld:
		return "held"
	case StateReleasing:
		return "releasing"
	case StateReleased:
		return "released"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// ReleaseResult reports what a release did.
type ReleaseResult int

const (
	// NotHeld means the lease was already gone or owned by someone else; the
	// store was left untouched.
	NotHeld ReleaseResult = iota
	// Released means this call deleted the lease.
	Released
)

func (r ReleaseResult) String() string {
	if r == Released {
		return "released"
	}
	return "not_held"
}

// newToken returns a fresh holder token.
func newToken() string {
	return uuid.NewString()
}

// shortToken trims a token for log lines.
func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
