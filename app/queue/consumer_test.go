package queue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

func newClaimService(client *redis.Client) (*service.ClaimService, *service.TicketService) {
	locker := lock.NewLocker(lock.NewRedisStore(client), lock.Config{
		RetryInterval:  5 * time.Millisecond,
		AcquireTimeout: time.Second,
	})
	tickets := service.NewTicketService(locker, repository.NewTicketRepository(client))
	envelopes := service.NewEnvelopeService(locker, repository.NewEnvelopeRepository(client), nil)
	claims := service.NewClaimService(repository.NewClaimResultRepository(client), nil, tickets, envelopes)
	return claims, tickets
}

func readOne(t *testing.T, client *redis.Client) redis.XMessage {
	t.Helper()

	streams, err := client.XReadGroup(context.Background(), &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: "c1",
		Streams:  []string{StreamName, ">"},
		Count:    1,
	}).Result()
	if err != nil {
		if strings.Contains(err.Error(), "unknown command") {
			t.Skipf("streams not supported by miniredis: %v", err)
		}
		t.Fatalf("XReadGroup: %v", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		t.Fatalf("expected a message to be read")
	}
	return streams[0].Messages[0]
}

func TestClaimConsumerProcessMessageAcks(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	claims, tickets := newClaimService(client)
	consumer := NewClaimConsumer(client, claims, "c1")
	if err := consumer.ensureGroup(ctx); err != nil {
		t.Fatalf("ensureGroup: %v", err)
	}
	if err := tickets.SetQuantity(ctx, "concert", 3); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if err := claims.CreateRequest(ctx, "req-1", entity.ClaimKindTicket); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := NewClaimProducer(client).Publish(ctx, ClaimMessage{
		RequestID: "req-1",
		Kind:      entity.ClaimKindTicket,
		Event:     "concert",
		UserID:    "u1",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	consumer.processMessage(ctx, readOne(t, client))

	pending, err := client.XPending(ctx, StreamName, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected 0 pending, got %d", pending.Count)
	}

	result, err := claims.Result(ctx, "req-1")
	if err != nil || result == nil || result.Status != entity.ClaimStatusSuccess {
		t.Fatalf("unexpected result: %+v err=%v", result, err)
	}
	if remaining, _ := tickets.Remaining(ctx, "concert"); remaining != 2 {
		t.Fatalf("expected 2 remaining, got %d", remaining)
	}
}

func TestClaimConsumerLeavesBusyClaimPending(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	claims, tickets := newClaimService(client)
	consumer := NewClaimConsumer(client, claims, "c1")
	if err := consumer.ensureGroup(ctx); err != nil {
		t.Fatalf("ensureGroup: %v", err)
	}
	if err := tickets.SetQuantity(ctx, "concert", 3); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}

	// Someone else holds the event lock for longer than the claim may wait.
	if err := mr.Set("lock:tickets:concert", "other-holder"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := NewClaimProducer(client).Publish(ctx, ClaimMessage{
		RequestID: "req-1",
		Kind:      entity.ClaimKindTicket,
		Event:     "concert",
		UserID:    "u1",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	consumer.processMessage(ctx, readOne(t, client))

	pending, err := client.XPending(ctx, StreamName, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending: %v", err)
	}
	if pending.Count != 1 {
		t.Fatalf("expected busy claim to stay pending, got %d", pending.Count)
	}
	if remaining, _ := tickets.Remaining(ctx, "concert"); remaining != 3 {
		t.Fatalf("expected no ticket taken, got %d remaining", remaining)
	}
}

func TestClaimConsumerReclaimsIdleClaim(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	claims, tickets := newClaimService(client)
	consumer := NewClaimConsumer(client, claims, "c2")
	consumer.reclaimAfter = 0
	if err := consumer.ensureGroup(ctx); err != nil {
		t.Fatalf("ensureGroup: %v", err)
	}
	if err := tickets.SetQuantity(ctx, "concert", 3); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if err := claims.CreateRequest(ctx, "req-1", entity.ClaimKindTicket); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := NewClaimProducer(client).Publish(ctx, ClaimMessage{
		RequestID: "req-1",
		Kind:      entity.ClaimKindTicket,
		Event:     "concert",
		UserID:    "u1",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// c1 takes delivery and never acknowledges.
	readOne(t, client)

	if n := consumer.reclaim(ctx); n != 1 {
		t.Fatalf("expected 1 reclaimed claim, got %d", n)
	}

	pending, err := client.XPending(ctx, StreamName, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected 0 pending after reclaim, got %d", pending.Count)
	}
	result, err := claims.Result(ctx, "req-1")
	if err != nil || result == nil || result.Status != entity.ClaimStatusSuccess {
		t.Fatalf("unexpected result: %+v err=%v", result, err)
	}
}
