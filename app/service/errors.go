package service

import (
	"errors"

	"github.com/vibast-solutions/ms-go-reservations/app/lock"
)

var (
	ErrBusy               = errors.New("resource is busy, try again later")
	ErrCourseNotFound     = errors.New("course not found")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrSeatTaken          = errors.New("seat already taken")
	ErrCourseFull         = errors.New("course is full")
	ErrAlreadyEnrolled    = errors.New("student already enrolled in course")
	ErrNotSeatHolder      = errors.New("seat is not held by this student")
	ErrSoldOut            = errors.New("tickets sold out")
	ErrAlreadyHolding     = errors.New("user already holds a ticket")
	ErrNoEnvelopes        = errors.New("no envelopes left")
	ErrAlreadyGrabbed     = errors.New("user already grabbed an envelope")
	ErrInvalidSplit       = errors.New("total must cover at least one cent per envelope")
	ErrDuplicateRequestID = errors.New("duplicate request_id")
	ErrUnknownClaimKind   = errors.New("unknown claim kind")
)

// mapLockError turns a lock acquisition timeout into ErrBusy. Store failures
// and lost leases pass through unchanged.
func mapLockError(err error) error {
	if errors.Is(err, lock.ErrAcquisitionTimeout) {
		return ErrBusy
	}
	return err
}

// IsRejection reports whether err is a final business outcome. Busy resources
// and infrastructure failures are not; those are worth retrying.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrCourseNotFound, ErrSeatNotFound, ErrSeatTaken, ErrCourseFull,
		ErrAlreadyEnrolled, ErrSoldOut, ErrAlreadyHolding, ErrNoEnvelopes, ErrAlreadyGrabbed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
