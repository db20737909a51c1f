package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type ClaimProducer struct {
	client *redis.Client
}

// NewClaimProducer constructs a Redis stream producer.
func NewClaimProducer(client *redis.Client) *ClaimProducer {
	return &ClaimProducer{client: client}
}

// Publish pushes a claim onto the stream.
func (p *ClaimProducer) Publish(ctx context.Context, msg ClaimMessage) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: msg.values(),
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd to %s: %w", StreamName, err)
	}
	return nil
}
