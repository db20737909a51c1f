package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

// minEnvelopeCents is the smallest amount any envelope may hold.
const minEnvelopeCents = 1

type EnvelopeService struct {
	locker    *lock.Locker
	envelopes *repository.EnvelopeRepository

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEnvelopeService builds the red envelope service. A nil rng uses a
// randomly seeded generator.
func NewEnvelopeService(locker *lock.Locker, envelopes *repository.EnvelopeRepository, rng *rand.Rand) *EnvelopeService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &EnvelopeService{locker: locker, envelopes: envelopes, rng: rng}
}

// Install splits totalCents into count envelopes and replaces the pool.
func (s *EnvelopeService) Install(ctx context.Context, pool string, count int, totalCents int64) ([]int64, error) {
	if count <= 0 || totalCents < int64(count)*minEnvelopeCents {
		return nil, ErrInvalidSplit
	}

	s.mu.Lock()
	amounts := SplitAmount(s.rng, totalCents, count)
	s.mu.Unlock()

	_, err := lock.WithLock(ctx, s.locker, envelopeLockKey(pool), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.envelopes.Install(ctx, pool, amounts)
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return amounts, nil
}

// Remaining returns the envelopes left in a pool.
func (s *EnvelopeService) Remaining(ctx context.Context, pool string) (int64, error) {
	return s.envelopes.Remaining(ctx, pool)
}

// Grab hands the last envelope of the pool to the user and returns its amount.
func (s *EnvelopeService) Grab(ctx context.Context, pool string, userID string) (int64, error) {
	amount, err := lock.WithLock(ctx, s.locker, envelopeLockKey(pool), func(ctx context.Context) (int64, error) {
		grabbed, err := s.envelopes.HasGrabbed(ctx, pool, userID)
		if err != nil {
			return 0, fmt.Errorf("check grabbed: %w", err)
		}
		if grabbed {
			return 0, ErrAlreadyGrabbed
		}

		amount, ok, err := s.envelopes.Take(ctx, pool, userID)
		if err != nil {
			return 0, fmt.Errorf("take envelope: %w", err)
		}
		if !ok {
			return 0, ErrNoEnvelopes
		}
		return amount, nil
	})
	if err != nil {
		return 0, mapLockError(err)
	}

	logEntry(ctx).WithField("pool", pool).
		WithField("user_id", userID).
		WithField("amount_cents", amount).
		Info("envelope grabbed")
	return amount, nil
}

// SplitAmount splits total into count random amounts of at least one cent.
// Each envelope but the last gets between the minimum and an even share of
// what is left; the last one takes the remainder.
func SplitAmount(rng *rand.Rand, total int64, count int) []int64 {
	amounts := make([]int64, 0, count)
	remaining := total
	for left := count; left > 1; left-- {
		maxAmount := remaining / int64(left)
		amount := int64(minEnvelopeCents)
		if maxAmount > minEnvelopeCents {
			amount += rng.Int64N(maxAmount - minEnvelopeCents + 1)
		}
		amounts = append(amounts, amount)
		remaining -= amount
	}
	return append(amounts, remaining)
}

func envelopeLockKey(pool string) string {
	return fmt.Sprintf("envelopes:%s", pool)
}
