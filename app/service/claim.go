package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

// Claim is one asynchronous reservation attempt. Which fields matter depends
// on Kind.
type Claim struct {
	RequestID   string
	Kind        string
	StudentID   string
	CourseID    string
	Seat        string
	NotifyEmail string
	Event       string
	Pool        string
	UserID      string
}

type ClaimService struct {
	results     *repository.ClaimResultRepository
	enrollments *EnrollmentService
	tickets     *TicketService
	envelopes   *EnvelopeService
}

// NewClaimService builds the claim service on top of the reservation services.
func NewClaimService(results *repository.ClaimResultRepository, enrollments *EnrollmentService, tickets *TicketService, envelopes *EnvelopeService) *ClaimService {
	return &ClaimService{results: results, enrollments: enrollments, tickets: tickets, envelopes: envelopes}
}

// CreateRequest records a pending claim for the request ID.
func (s *ClaimService) CreateRequest(ctx context.Context, requestID string, kind string) error {
	if !knownClaimKind(kind) {
		return ErrUnknownClaimKind
	}
	created, err := s.results.CreatePending(ctx, requestID, kind)
	if err != nil {
		return fmt.Errorf("create pending claim: %w", err)
	}
	if !created {
		return ErrDuplicateRequestID
	}
	return nil
}

// DeleteRequest forgets a claim that could not be queued.
func (s *ClaimService) DeleteRequest(ctx context.Context, requestID string) error {
	return s.results.Delete(ctx, requestID)
}

// Result returns the recorded outcome of a claim, or nil when unknown.
func (s *ClaimService) Result(ctx context.Context, requestID string) (*entity.ClaimResult, error) {
	return s.results.Find(ctx, requestID)
}

// Process runs a claim and records its outcome. Business rejections are final
// and recorded; any other error is returned so the claim can be retried.
func (s *ClaimService) Process(ctx context.Context, claim Claim) error {
	if claim.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	ctx = WithRequestID(ctx, claim.RequestID)

	detail, err := s.dispatch(ctx, claim)
	result := entity.ClaimResult{RequestID: claim.RequestID, Kind: claim.Kind}
	switch {
	case err == nil:
		result.Status = entity.ClaimStatusSuccess
		result.Detail = detail
	case IsRejection(err), errors.Is(err, ErrUnknownClaimKind):
		result.Status = entity.ClaimStatusRejected
		result.Detail = err.Error()
	default:
		logEntry(ctx).WithError(err).WithField("kind", claim.Kind).Warn("claim failed, will be retried")
		return err
	}

	if err := s.results.Save(ctx, result); err != nil {
		return fmt.Errorf("save claim result: %w", err)
	}
	logEntry(ctx).WithField("kind", claim.Kind).WithField("status", result.Status).Info("claim processed")
	return nil
}

func (s *ClaimService) dispatch(ctx context.Context, claim Claim) (string, error) {
	switch claim.Kind {
	case entity.ClaimKindEnrollment:
		enrollment, err := s.enrollments.Enroll(ctx, EnrollRequest{
			StudentID:   claim.StudentID,
			CourseID:    claim.CourseID,
			Seat:        claim.Seat,
			NotifyEmail: claim.NotifyEmail,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("seat %s", enrollment.Seat), nil
	case entity.ClaimKindTicket:
		remaining, err := s.tickets.Grab(ctx, claim.Event, claim.UserID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d remaining", remaining), nil
	case entity.ClaimKindEnvelope:
		amount, err := s.envelopes.Grab(ctx, claim.Pool, claim.UserID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d cents", amount), nil
	default:
		return "", ErrUnknownClaimKind
	}
}

func knownClaimKind(kind string) bool {
	switch kind {
	case entity.ClaimKindEnrollment, entity.ClaimKindTicket, entity.ClaimKindEnvelope:
		return true
	}
	return false
}
