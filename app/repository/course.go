package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

type CourseRepository struct {
	db *sql.DB
}

// NewCourseRepository constructs a course repository backed by MySQL.
func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID loads a course, or returns nil when it does not exist.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*entity.Course, error) {
	const query = `
		SELECT id, title, capacity, available_seats
		FROM courses
		WHERE id = ?
	`
	var course entity.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(&course.ID, &course.Title, &course.Capacity, &course.AvailableSeats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Upsert creates a course or resets an existing one to the given capacity.
func (r *CourseRepository) Upsert(ctx context.Context, course entity.Course) error {
	const query = `
		INSERT INTO courses (id, title, capacity, available_seats)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title),
			capacity = VALUES(capacity),
			available_seats = VALUES(available_seats)
	`
	_, err := r.db.ExecContext(ctx, query, course.ID, course.Title, course.Capacity, course.AvailableSeats)
	return err
}

// DecrementAvailableSeats takes one seat from the course counter. It reports
// false when the course has no seats left.
func (r *CourseRepository) DecrementAvailableSeats(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE courses
		SET available_seats = available_seats - 1
		WHERE id = ? AND available_seats > 0
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementAvailableSeats gives a seat back, never above capacity.
func (r *CourseRepository) IncrementAvailableSeats(ctx context.Context, id string) error {
	const query = `
		UPDATE courses
		SET available_seats = available_seats + 1
		WHERE id = ? AND available_seats < capacity
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
