package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// KEYS: lock, queue, queue timeouts. ARGV: token, ttl ms, now ms, stale-at ms, queue ttl ms.
var acquireHeadScript = redis.NewScript(`
if redis.call("zscore", KEYS[3], ARGV[1]) == false then
	redis.call("rpush", KEYS[2], ARGV[1])
end
redis.call("zadd", KEYS[3], ARGV[4], ARGV[1])
redis.call("pexpire", KEYS[2], ARGV[5])
redis.call("pexpire", KEYS[3], ARGV[5])

while true do
	local head = redis.call("lindex", KEYS[2], 0)
	if not head then
		break
	end
	local deadline = redis.call("zscore", KEYS[3], head)
	if deadline and tonumber(deadline) >= tonumber(ARGV[3]) then
		break
	end
	redis.call("lpop", KEYS[2])
	redis.call("zrem", KEYS[3], head)
end

if redis.call("lindex", KEYS[2], 0) ~= ARGV[1] then
	return 0
end
if not redis.call("set", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return 0
end
redis.call("lpop", KEYS[2])
redis.call("zrem", KEYS[3], ARGV[1])
return 1
`)

var dequeueScript = redis.NewScript(`
redis.call("lrem", KEYS[1], 0, ARGV[1])
redis.call("zrem", KEYS[2], ARGV[1])
return 1
`)

// RedisStore is a Store backed by a single Redis server. Compare-and-*
// operations run as server-side scripts.
type RedisStore struct {
	client *redis.Client
}

var _ FairStore = (*RedisStore)(nil)

// NewRedisStore constructs a Redis-backed lease store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SetNX claims key with SET NX PX.
func (s *RedisStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// Get returns the current value of key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// CompareAndDelete deletes key if it holds expected.
func (s *RedisStore) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{key}, expected).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompareAndExpire resets the TTL of key if it holds expected.
func (s *RedisStore) CompareAndExpire(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, s.client, []string{key}, expected, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Expire resets the TTL of key.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.PExpire(ctx, key, ttl).Result()
}

// TryAcquireHead runs the fair claim script against the waiter list and its
// liveness sorted set.
func (s *RedisStore) TryAcquireHead(ctx context.Context, key string, token string, ttl time.Duration, now time.Time, staleAt time.Time) (bool, error) {
	queueTTL := staleAt.Sub(now) + ttl
	n, err := acquireHeadScript.Run(ctx, s.client,
		[]string{key, queueKey(key), queueTimeoutsKey(key)},
		token, ttl.Milliseconds(), now.UnixMilli(), staleAt.UnixMilli(), queueTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Dequeue removes token from the waiter list of key.
func (s *RedisStore) Dequeue(ctx context.Context, key string, token string) error {
	return dequeueScript.Run(ctx, s.client, []string{queueKey(key), queueTimeoutsKey(key)}, token).Err()
}

func queueKey(key string) string {
	return key + ":queue"
}

func queueTimeoutsKey(key string) string {
	return key + ":queue:timeouts"
}
