package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/notifier"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

const (
	// notifyTimeout bounds the best-effort confirmation sent after enrolling.
	notifyTimeout = 10 * time.Second
	// compensateTimeout bounds each undo step. Undo steps outlive the caller's
	// context so a canceled request or a lost lease cannot strand a half-made
	// enrollment.
	compensateTimeout = 5 * time.Second
)

type EnrollRequest struct {
	StudentID   string
	CourseID    string
	Seat        string
	NotifyEmail string
}

type EnrollmentService struct {
	locker      *lock.Locker
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	seats       *repository.SeatMapRepository
	notifier    notifier.Notifier
}

// NewEnrollmentService builds the enrollment service with dependencies.
func NewEnrollmentService(locker *lock.Locker, courses *repository.CourseRepository, enrollments *repository.EnrollmentRepository, seats *repository.SeatMapRepository, n notifier.Notifier) *EnrollmentService {
	return &EnrollmentService{locker: locker, courses: courses, enrollments: enrollments, seats: seats, notifier: n}
}

// OpenSeats creates or resets a course with one available seat per name.
func (s *EnrollmentService) OpenSeats(ctx context.Context, courseID string, title string, seats []string) error {
	if err := s.courses.Upsert(ctx, entity.Course{
		ID:             courseID,
		Title:          title,
		Capacity:       len(seats),
		AvailableSeats: len(seats),
	}); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	if err := s.seats.Open(ctx, courseID, seats...); err != nil {
		return fmt.Errorf("open seats: %w", err)
	}
	return nil
}

// Seats returns the seat map of a course.
func (s *EnrollmentService) Seats(ctx context.Context, courseID string) (map[string]string, error) {
	return s.seats.All(ctx, courseID)
}

// Enroll assigns one seat of a course to a student. The seat lock serializes
// every claimant of the same seat; the enrollments unique key catches a
// student racing for two different seats.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*entity.Enrollment, error) {
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	outcome, err := lock.WithLock(ctx, s.locker, seatLockKey(req.CourseID, req.Seat), func(ctx context.Context) (enrollOutcome, error) {
		return s.enrollLocked(ctx, req)
	})
	if err != nil {
		return nil, mapLockError(err)
	}

	log := logEntry(ctx).WithField("course_id", req.CourseID).
		WithField("seat", req.Seat).
		WithField("student_id", req.StudentID)
	if outcome.replayed {
		log.Info("enrollment already in place")
		return outcome.enrollment, nil
	}
	log.Info("student enrolled")

	if req.NotifyEmail != "" {
		s.notify(ctx, req.NotifyEmail, course.Title, req.Seat)
	}
	return outcome.enrollment, nil
}

type enrollOutcome struct {
	enrollment *entity.Enrollment
	// replayed is set when the student already holds the requested seat, as
	// after a retry of a request whose lease was lost once it had committed.
	replayed bool
}

func (s *EnrollmentService) enrollLocked(ctx context.Context, req EnrollRequest) (enrollOutcome, error) {
	exists, err := s.enrollments.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return enrollOutcome{}, fmt.Errorf("check enrollment: %w", err)
	}

	status, ok, err := s.seats.Status(ctx, req.CourseID, req.Seat)
	if err != nil {
		return enrollOutcome{}, fmt.Errorf("load seat: %w", err)
	}
	if exists {
		if ok && status == req.StudentID {
			return enrollOutcome{
				enrollment: &entity.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID, Seat: req.Seat},
				replayed:   true,
			}, nil
		}
		return enrollOutcome{}, ErrAlreadyEnrolled
	}
	if !ok {
		return enrollOutcome{}, ErrSeatNotFound
	}
	if status != entity.SeatAvailable {
		return enrollOutcome{}, ErrSeatTaken
	}

	enrollment := entity.Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Seat:      req.Seat,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return enrollOutcome{}, ErrAlreadyEnrolled
		}
		return enrollOutcome{}, fmt.Errorf("create enrollment: %w", err)
	}

	taken, err := s.courses.DecrementAvailableSeats(ctx, req.CourseID)
	if err != nil || !taken {
		s.compensate(ctx, "failed to roll back enrollment record", func(ctx context.Context) error {
			return s.enrollments.Delete(ctx, req.StudentID, req.CourseID)
		})
		if err != nil {
			return enrollOutcome{}, fmt.Errorf("decrement available seats: %w", err)
		}
		return enrollOutcome{}, ErrCourseFull
	}

	if err := s.seats.Assign(ctx, req.CourseID, req.Seat, req.StudentID); err != nil {
		s.compensate(ctx, "failed to give back course seat", func(ctx context.Context) error {
			return s.courses.IncrementAvailableSeats(ctx, req.CourseID)
		})
		s.compensate(ctx, "failed to roll back enrollment record", func(ctx context.Context) error {
			return s.enrollments.Delete(ctx, req.StudentID, req.CourseID)
		})
		return enrollOutcome{}, fmt.Errorf("assign seat: %w", err)
	}

	return enrollOutcome{enrollment: &enrollment}, nil
}

// Withdraw gives the seat back: the enrollment record goes, the course
// counter goes up and the seat turns available again.
func (s *EnrollmentService) Withdraw(ctx context.Context, req EnrollRequest) error {
	_, err := lock.WithLock(ctx, s.locker, seatLockKey(req.CourseID, req.Seat), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.withdrawLocked(ctx, req)
	})
	if err != nil {
		return mapLockError(err)
	}

	logEntry(ctx).WithField("course_id", req.CourseID).
		WithField("seat", req.Seat).
		WithField("student_id", req.StudentID).
		Info("student withdrew")
	return nil
}

func (s *EnrollmentService) withdrawLocked(ctx context.Context, req EnrollRequest) error {
	status, ok, err := s.seats.Status(ctx, req.CourseID, req.Seat)
	if err != nil {
		return fmt.Errorf("load seat: %w", err)
	}
	if !ok {
		return ErrSeatNotFound
	}
	if status != req.StudentID {
		return ErrNotSeatHolder
	}

	if err := s.enrollments.Delete(ctx, req.StudentID, req.CourseID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	// Past this point the record is gone, so the remaining steps must finish
	// even if the caller goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	if err := s.courses.IncrementAvailableSeats(ctx, req.CourseID); err != nil {
		logEntry(ctx).WithError(err).Error("failed to give back course seat")
	}
	if err := s.seats.Free(ctx, req.CourseID, req.Seat); err != nil {
		return fmt.Errorf("free seat: %w", err)
	}
	return nil
}

// compensate runs one undo step on a context detached from ctx.
func (s *EnrollmentService) compensate(ctx context.Context, failure string, undo func(context.Context) error) {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := undo(undoCtx); err != nil {
		logEntry(ctx).WithError(err).Error(failure)
	}
}

func (s *EnrollmentService) notify(ctx context.Context, recipient string, courseTitle string, seat string) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, notifier.EnrollmentConfirmation(recipient, courseTitle, seat)); err != nil {
		logEntry(ctx).WithError(err).Warn("enrollment confirmation not sent")
	}
}

func seatLockKey(courseID string, seat string) string {
	return fmt.Sprintf("course:%s:seat:%s", courseID, seat)
}
