package dto

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

var (
	ErrMissingClaimFields = errors.New("request_id and kind are required")
	ErrUnknownClaimKind   = errors.New("kind must be one of enrollment, ticket, envelope")
	ErrIncompleteClaim    = errors.New("claim is missing fields required by its kind")
)

type ClaimRequest struct {
	RequestID   string `json:"request_id"`
	Kind        string `json:"kind"`
	StudentID   string `json:"student_id"`
	CourseID    string `json:"course_id"`
	Seat        string `json:"seat"`
	NotifyEmail string `json:"notify_email"`
	Event       string `json:"event"`
	Pool        string `json:"pool"`
	UserID      string `json:"user_id"`
}

// ClaimFromEchoContext binds and normalizes a claim request.
func ClaimFromEchoContext(ctx echo.Context) (ClaimRequest, error) {
	var req ClaimRequest
	if err := ctx.Bind(&req); err != nil {
		return ClaimRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks the fields each claim kind needs.
func (r *ClaimRequest) Validate() error {
	if r.RequestID == "" || r.Kind == "" {
		return ErrMissingClaimFields
	}
	switch r.Kind {
	case entity.ClaimKindEnrollment:
		if r.StudentID == "" || r.CourseID == "" || r.Seat == "" {
			return ErrIncompleteClaim
		}
		if r.NotifyEmail != "" {
			if _, err := mail.ParseAddress(r.NotifyEmail); err != nil {
				return ErrInvalidNotifyAddress
			}
		}
	case entity.ClaimKindTicket:
		if r.Event == "" || r.UserID == "" {
			return ErrIncompleteClaim
		}
	case entity.ClaimKindEnvelope:
		if r.Pool == "" || r.UserID == "" {
			return ErrIncompleteClaim
		}
	default:
		return ErrUnknownClaimKind
	}
	return nil
}

func (r *ClaimRequest) normalize() {
	r.RequestID = strings.TrimSpace(r.RequestID)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.Seat = strings.TrimSpace(r.Seat)
	r.NotifyEmail = strings.TrimSpace(r.NotifyEmail)
	r.Event = strings.TrimSpace(r.Event)
	r.Pool = strings.TrimSpace(r.Pool)
	r.UserID = strings.TrimSpace(r.UserID)
}
