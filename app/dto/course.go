package dto

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrMissingCourseFields  = errors.New("course_id, title and at least one seat are required")
	ErrDuplicateSeat        = errors.New("seat names must be unique")
	ErrMissingEnrollFields  = errors.New("course_id, student_id and seat are required")
	ErrInvalidNotifyAddress = errors.New("notify_email must be a valid email address")
)

type OpenSeatsRequest struct {
	CourseID string   `param:"course_id"`
	Title    string   `json:"title"`
	Seats    []string `json:"seats"`
}

// OpenSeatsFromEchoContext binds and normalizes an open-seats request.
func OpenSeatsFromEchoContext(ctx echo.Context) (OpenSeatsRequest, error) {
	var req OpenSeatsRequest
	if err := ctx.Bind(&req); err != nil {
		return OpenSeatsRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and seat uniqueness.
func (r *OpenSeatsRequest) Validate() error {
	if r.CourseID == "" || r.Title == "" || len(r.Seats) == 0 {
		return ErrMissingCourseFields
	}
	seen := make(map[string]struct{}, len(r.Seats))
	for _, seat := range r.Seats {
		if seat == "" {
			return ErrMissingCourseFields
		}
		if _, ok := seen[seat]; ok {
			return ErrDuplicateSeat
		}
		seen[seat] = struct{}{}
	}
	return nil
}

func (r *OpenSeatsRequest) normalize() {
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.Title = strings.TrimSpace(r.Title)
	for i, seat := range r.Seats {
		r.Seats[i] = strings.TrimSpace(seat)
	}
}

type EnrollRequest struct {
	CourseID    string `param:"course_id"`
	StudentID   string `json:"student_id"`
	Seat        string `json:"seat"`
	NotifyEmail string `json:"notify_email"`
}

// EnrollFromEchoContext binds and normalizes an enrollment request.
func EnrollFromEchoContext(ctx echo.Context) (EnrollRequest, error) {
	var req EnrollRequest
	if err := ctx.Bind(&req); err != nil {
		return EnrollRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and the optional notification address.
func (r *EnrollRequest) Validate() error {
	if r.CourseID == "" || r.StudentID == "" || r.Seat == "" {
		return ErrMissingEnrollFields
	}
	if r.NotifyEmail != "" {
		if _, err := mail.ParseAddress(r.NotifyEmail); err != nil {
			return ErrInvalidNotifyAddress
		}
	}
	return nil
}

func (r *EnrollRequest) normalize() {
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Seat = strings.TrimSpace(r.Seat)
	r.NotifyEmail = strings.TrimSpace(r.NotifyEmail)
}
