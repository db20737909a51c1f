package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TicketRepository keeps a remaining-quantity counter and the set of holders
// per event.
type TicketRepository struct {
	client *redis.Client
}

// NewTicketRepository constructs a Redis-backed ticket counter.
func NewTicketRepository(client *redis.Client) *TicketRepository {
	return &TicketRepository{client: client}
}

// SetQuantity resets the remaining quantity and clears the holders.
func (r *TicketRepository) SetQuantity(ctx context.Context, event string, quantity int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ticketQuantityKey(event), quantity, 0)
		pipe.Del(ctx, ticketHoldersKey(event))
		return nil
	})
	return err
}

// Quantity returns the remaining quantity; a missing counter reads as zero.
func (r *TicketRepository) Quantity(ctx context.Context, event string) (int64, error) {
	n, err := r.client.Get(ctx, ticketQuantityKey(event)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Take decrements the counter and records the holder in one transaction.
func (r *TicketRepository) Take(ctx context.Context, event string, userID string) (int64, error) {
	var decr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		decr = pipe.Decr(ctx, ticketQuantityKey(event))
		pipe.SAdd(ctx, ticketHoldersKey(event), userID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return decr.Val(), nil
}

// IsHolder reports whether the user already holds a ticket for the event.
func (r *TicketRepository) IsHolder(ctx context.Context, event string, userID string) (bool, error) {
	return r.client.SIsMember(ctx, ticketHoldersKey(event), userID).Result()
}

func ticketQuantityKey(event string) string {
	return fmt.Sprintf("tickets:%s:quantity", event)
}

func ticketHoldersKey(event string) string {
	return fmt.Sprintf("tickets:%s:holders", event)
}
