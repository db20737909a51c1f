package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/notifier"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newLocker(client *redis.Client) *lock.Locker {
	return lock.NewLocker(lock.NewRedisStore(client), lock.Config{
		WatchdogTTL:    5 * time.Second,
		RetryInterval:  2 * time.Millisecond,
		RetryJitter:    time.Millisecond,
		AcquireTimeout: 5 * time.Second,
	})
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, msg notifier.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
