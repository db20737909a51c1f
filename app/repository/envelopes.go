package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EnvelopeRepository keeps a stack of envelope amounts per pool and the
// amounts already grabbed per user.
type EnvelopeRepository struct {
	client *redis.Client
}

// NewEnvelopeRepository constructs a Redis-backed envelope pool.
func NewEnvelopeRepository(client *redis.Client) *EnvelopeRepository {
	return &EnvelopeRepository{client: client}
}

// Install replaces the pool with the given amounts and forgets past grabs.
func (r *EnvelopeRepository) Install(ctx context.Context, pool string, amounts []int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, envelopeListKey(pool), envelopeGrabbedKey(pool))
		if len(amounts) == 0 {
			return nil
		}
		values := make([]interface{}, len(amounts))
		for i, amount := range amounts {
			values[i] = amount
		}
		pipe.RPush(ctx, envelopeListKey(pool), values...)
		return nil
	})
	return err
}

// Remaining returns the number of envelopes left in the pool.
func (r *EnvelopeRepository) Remaining(ctx context.Context, pool string) (int64, error) {
	return r.client.LLen(ctx, envelopeListKey(pool)).Result()
}

// takeScript pops the last envelope and records it against the user in one
// step, so an envelope never leaves the pool without an owner.
var takeScript = redis.NewScript(`
local amount = redis.call('RPOP', KEYS[1])
if not amount then
	return false
end
redis.call('HSET', KEYS[2], ARGV[1], amount)
return amount
`)

// Take hands the last envelope to the user and returns its amount. ok is false
// when the pool is empty.
func (r *EnvelopeRepository) Take(ctx context.Context, pool string, userID string) (int64, bool, error) {
	amount, err := takeScript.Run(ctx, r.client, []string{envelopeListKey(pool), envelopeGrabbedKey(pool)}, userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// HasGrabbed reports whether the user already took an envelope from the pool.
func (r *EnvelopeRepository) HasGrabbed(ctx context.Context, pool string, userID string) (bool, error) {
	return r.client.HExists(ctx, envelopeGrabbedKey(pool), userID).Result()
}

func envelopeListKey(pool string) string {
	return fmt.Sprintf("envelopes:%s", pool)
}

func envelopeGrabbedKey(pool string) string {
	return fmt.Sprintf("envelopes:%s:grabbed", pool)
}
