package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/dto"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type EnvelopeController struct {
	envelopes *service.EnvelopeService
}

// NewEnvelopeController constructs the HTTP red envelope controller.
func NewEnvelopeController(envelopes *service.EnvelopeService) *EnvelopeController {
	return &EnvelopeController{envelopes: envelopes}
}

// Install splits an amount into a fresh envelope pool.
func (c *EnvelopeController) Install(ctx echo.Context) error {
	req, err := dto.InstallEnvelopesFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	amounts, err := c.envelopes.Install(ctx.Request().Context(), req.Pool, req.Count, req.TotalCents)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"pool": req.Pool, "amounts_cents": amounts})
}

// Remaining reports the envelopes left in a pool.
func (c *EnvelopeController) Remaining(ctx echo.Context) error {
	remaining, err := c.envelopes.Remaining(ctx.Request().Context(), ctx.Param("pool"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"pool": ctx.Param("pool"), "remaining": remaining})
}

// Grab hands the last envelope of a pool to a user.
func (c *EnvelopeController) Grab(ctx echo.Context) error {
	req, err := dto.GrabFromEchoContext(ctx, "pool")
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	amount, err := c.envelopes.Grab(ctx.Request().Context(), req.Target, req.UserID)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"pool": req.Target, "user_id": req.UserID, "amount_cents": amount})
}
