package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

// claimResultTTL bounds how long claim outcomes stay queryable.
const claimResultTTL = 24 * time.Hour

type ClaimResultRepository struct {
	client *redis.Client
}

// NewClaimResultRepository constructs a Redis-backed claim result store.
func NewClaimResultRepository(client *redis.Client) *ClaimResultRepository {
	return &ClaimResultRepository{client: client}
}

// Save stores or overwrites the result for its request ID.
func (r *ClaimResultRepository) Save(ctx context.Context, result entity.ClaimResult) error {
	key := claimResultKey(result.RequestID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"kind", result.Kind,
			"status", result.Status,
			"detail", result.Detail,
		)
		pipe.Expire(ctx, key, claimResultTTL)
		return nil
	})
	return err
}

// CreatePending stores a pending result unless one already exists for the
// request ID. It reports false for a duplicate request ID.
func (r *ClaimResultRepository) CreatePending(ctx context.Context, requestID string, kind string) (bool, error) {
	key := claimResultKey(requestID)
	created, err := r.client.HSetNX(ctx, key, "status", entity.ClaimStatusPending).Result()
	if err != nil || !created {
		return false, err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "kind", kind, "detail", "")
		pipe.Expire(ctx, key, claimResultTTL)
		return nil
	})
	return err == nil, err
}

// Delete removes the result for a request ID.
func (r *ClaimResultRepository) Delete(ctx context.Context, requestID string) error {
	return r.client.Del(ctx, claimResultKey(requestID)).Err()
}

// Find loads the result for a request ID, or returns nil when unknown.
func (r *ClaimResultRepository) Find(ctx context.Context, requestID string) (*entity.ClaimResult, error) {
	values, err := r.client.HGetAll(ctx, claimResultKey(requestID)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &entity.ClaimResult{
		RequestID: requestID,
		Kind:      values["kind"],
		Status:    values["status"],
		Detail:    values["detail"],
	}, nil
}

func claimResultKey(requestID string) string {
	return fmt.Sprintf("claims:%s", requestID)
}
