package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/dto"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type TicketController struct {
	tickets *service.TicketService
}

// NewTicketController constructs the HTTP ticket controller.
func NewTicketController(tickets *service.TicketService) *TicketController {
	return &TicketController{tickets: tickets}
}

// SetQuantity resets the tickets on sale for an event.
func (c *TicketController) SetQuantity(ctx echo.Context) error {
	req, err := dto.SetTicketsFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.tickets.SetQuantity(ctx.Request().Context(), req.Event, req.Quantity); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"event": req.Event, "remaining": req.Quantity})
}

// Remaining reports the tickets left for an event.
func (c *TicketController) Remaining(ctx echo.Context) error {
	remaining, err := c.tickets.Remaining(ctx.Request().Context(), ctx.Param("event"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"event": ctx.Param("event"), "remaining": remaining})
}

// Grab takes one ticket for a user.
func (c *TicketController) Grab(ctx echo.Context) error {
	req, err := dto.GrabFromEchoContext(ctx, "event")
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	remaining, err := c.tickets.Grab(ctx.Request().Context(), req.Target, req.UserID)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"event": req.Target, "user_id": req.UserID, "remaining": remaining})
}
