package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

// SeatMapRepository keeps the per-course seat map: seat -> "available" or the
// holding student ID.
type SeatMapRepository struct {
	client *redis.Client
}

// NewSeatMapRepository constructs a Redis-backed seat map.
func NewSeatMapRepository(client *redis.Client) *SeatMapRepository {
	return &SeatMapRepository{client: client}
}

// Open marks the given seats available, overwriting any previous holder.
func (r *SeatMapRepository) Open(ctx context.Context, courseID string, seats ...string) error {
	if len(seats) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(seats)*2)
	for _, seat := range seats {
		values = append(values, seat, entity.SeatAvailable)
	}
	return r.client.HSet(ctx, seatMapKey(courseID), values...).Err()
}

// Status returns the seat value and whether the seat exists.
func (r *SeatMapRepository) Status(ctx context.Context, courseID string, seat string) (string, bool, error) {
	value, err := r.client.HGet(ctx, seatMapKey(courseID), seat).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Assign records the student as the seat holder.
func (r *SeatMapRepository) Assign(ctx context.Context, courseID string, seat string, studentID string) error {
	return r.client.HSet(ctx, seatMapKey(courseID), seat, studentID).Err()
}

// Free puts a seat back to available.
func (r *SeatMapRepository) Free(ctx context.Context, courseID string, seat string) error {
	return r.client.HSet(ctx, seatMapKey(courseID), seat, entity.SeatAvailable).Err()
}

// All returns the full seat map of a course.
func (r *SeatMapRepository) All(ctx context.Context, courseID string) (map[string]string, error) {
	return r.client.HGetAll(ctx, seatMapKey(courseID)).Result()
}

func seatMapKey(courseID string) string {
	return fmt.Sprintf("course:%s:seats", courseID)
}
