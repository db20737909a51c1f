package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/dto"
	"github.com/vibast-solutions/ms-go-reservations/app/queue"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type ClaimPublisher interface {
	Publish(ctx context.Context, msg queue.ClaimMessage) error
}

type ClaimController struct {
	claims    *service.ClaimService
	publisher ClaimPublisher
}

// NewClaimController constructs the HTTP claim controller.
func NewClaimController(claims *service.ClaimService, publisher ClaimPublisher) *ClaimController {
	return &ClaimController{claims: claims, publisher: publisher}
}

// Submit validates, records and enqueues an asynchronous claim.
func (c *ClaimController) Submit(ctx echo.Context) error {
	req, err := dto.ClaimFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	reqCtx := ctx.Request().Context()
	if err := c.claims.CreateRequest(reqCtx, req.RequestID, req.Kind); err != nil {
		if errors.Is(err, service.ErrDuplicateRequestID) {
			return badRequest(ctx, "duplicate request_id")
		}
		return writeError(ctx, err)
	}

	if err := c.publisher.Publish(reqCtx, queue.ClaimMessage{
		RequestID:   req.RequestID,
		Kind:        req.Kind,
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		Seat:        req.Seat,
		NotifyEmail: req.NotifyEmail,
		Event:       req.Event,
		Pool:        req.Pool,
		UserID:      req.UserID,
	}); err != nil {
		_ = c.claims.DeleteRequest(reqCtx, req.RequestID)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to queue claim"})
	}

	return ctx.JSON(http.StatusAccepted, map[string]string{"message": "claim accepted", "request_id": req.RequestID})
}

// Result returns the recorded outcome of a claim.
func (c *ClaimController) Result(ctx echo.Context) error {
	result, err := c.claims.Result(ctx.Request().Context(), ctx.Param("request_id"))
	if err != nil {
		return writeError(ctx, err)
	}
	if result == nil {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "claim not found"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"request_id": result.RequestID,
		"kind":       result.Kind,
		"status":     result.Status,
		"detail":     result.Detail,
	})
}
