package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

type EnrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository constructs an enrollment repository backed by MySQL.
func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts an enrollment record. The (student_id, course_id) unique key
// rejects a second enrollment with MySQL error 1062.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment entity.Enrollment) error {
	const query = `
		INSERT INTO enrollments (student_id, course_id, seat)
		VALUES (?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, enrollment.StudentID, enrollment.CourseID, enrollment.Seat)
	return err
}

// Exists reports whether the student is already enrolled in the course.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID string, courseID string) (bool, error) {
	const query = `
		SELECT 1
		FROM enrollments
		WHERE student_id = ? AND course_id = ?
		LIMIT 1
	`
	var one int
	err := r.db.QueryRowContext(ctx, query, studentID, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an enrollment record.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID string, courseID string) error {
	const query = `
		DELETE FROM enrollments
		WHERE student_id = ? AND course_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, studentID, courseID)
	return err
}
