package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

const (
	// processTimeout bounds one claim, lock wait included.
	processTimeout = 30 * time.Second
	readBlock      = 5 * time.Second
	// defaultReclaimAfter is how long a delivered claim may sit unacknowledged
	// before any consumer of the group takes it over.
	defaultReclaimAfter = 30 * time.Second
	reclaimBatch        = 10
)

type ClaimConsumer struct {
	client       *redis.Client
	claims       *service.ClaimService
	consumerName string
	reclaimAfter time.Duration
	log          *logrus.Entry
}

// NewClaimConsumer constructs a Redis stream consumer.
func NewClaimConsumer(client *redis.Client, claims *service.ClaimService, consumerName string) *ClaimConsumer {
	return &ClaimConsumer{
		client:       client,
		claims:       claims,
		consumerName: consumerName,
		reclaimAfter: defaultReclaimAfter,
		log:          logrus.WithField("consumer", consumerName),
	}
}

// Run reads claims until ctx is canceled. Its own pending entries are drained
// first; afterwards every idle read also sweeps stale entries left by busy
// locks or dead consumers.
func (c *ClaimConsumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.log.WithField("stream", StreamName).Info("consumer started")

	startID := "0"
	for ctx.Err() == nil {
		messages, err := c.read(ctx, startID)
		switch {
		case errors.Is(err, redis.Nil):
			if startID == ">" {
				c.reclaim(ctx)
			}
			startID = ">"
			continue
		case err != nil:
			if ctx.Err() == nil {
				c.log.WithError(err).Error("XReadGroup failed")
				time.Sleep(time.Second)
			}
			continue
		}

		if len(messages) == 0 && startID == "0" {
			startID = ">"
			continue
		}
		for _, msg := range messages {
			c.processMessage(ctx, msg)
		}
	}

	c.log.Info("consumer shutting down")
	return nil
}

func (c *ClaimConsumer) read(ctx context.Context, startID string) ([]redis.XMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{StreamName, startID},
		Count:    1,
		Block:    readBlock,
	}).Result()
	if err != nil {
		return nil, err
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

// reclaim takes over claims that stayed unacknowledged for reclaimAfter and
// processes them again. It returns how many were taken over.
func (c *ClaimConsumer) reclaim(ctx context.Context) int {
	messages, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamName,
		Group:    ConsumerGroup,
		Consumer: c.consumerName,
		MinIdle:  c.reclaimAfter,
		Start:    "0-0",
		Count:    reclaimBatch,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			c.log.WithError(err).Warn("XAutoClaim failed")
		}
		return 0
	}

	for _, msg := range messages {
		c.log.WithField("message_id", msg.ID).Debug("reclaimed idle claim")
		c.processMessage(ctx, msg)
	}
	return len(messages)
}

// processMessage handles a single message and acks once its outcome is
// recorded. Retryable failures stay pending.
func (c *ClaimConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	claim := claimFromValues(msg.Values)
	log := c.log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"request_id": claim.RequestID,
		"kind":       claim.Kind,
	})
	log.Debug("processing claim")

	processCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if err := c.claims.Process(processCtx, claim); err != nil {
		metrics.ClaimsProcessed.WithLabelValues(claim.Kind, "retry").Inc()
		log.WithError(err).Warn("claim failed, message stays pending")
		return
	}
	metrics.ClaimsProcessed.WithLabelValues(claim.Kind, "done").Inc()

	if err := c.client.XAck(ctx, StreamName, ConsumerGroup, msg.ID).Err(); err != nil {
		log.WithError(err).Error("XAck failed")
	}
}

// ensureGroup creates the stream and consumer group if missing.
func (c *ClaimConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, StreamName, ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}
