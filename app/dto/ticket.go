package dto

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrMissingEvent    = errors.New("event is required")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrMissingGrabber  = errors.New("user_id is required")
	ErrMissingTarget   = errors.New("event or pool is required")
)

type SetTicketsRequest struct {
	Event    string `param:"event"`
	Quantity int64  `json:"quantity"`
}

// SetTicketsFromEchoContext binds and normalizes a set-quantity request.
func SetTicketsFromEchoContext(ctx echo.Context) (SetTicketsRequest, error) {
	var req SetTicketsRequest
	if err := ctx.Bind(&req); err != nil {
		return SetTicketsRequest{}, err
	}
	req.Event = strings.TrimSpace(req.Event)
	return req, nil
}

// Validate checks the event and quantity.
func (r *SetTicketsRequest) Validate() error {
	if r.Event == "" {
		return ErrMissingEvent
	}
	if r.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// GrabRequest is a user claiming one unit from a ticket event or an
// envelope pool, named by Target.
type GrabRequest struct {
	Target string `json:"-"`
	UserID string `json:"user_id"`
}

// GrabFromEchoContext binds a grab request whose target is the path
// parameter named param.
func GrabFromEchoContext(ctx echo.Context, param string) (GrabRequest, error) {
	var req GrabRequest
	if err := ctx.Bind(&req); err != nil {
		return GrabRequest{}, err
	}
	req.Target = strings.TrimSpace(ctx.Param(param))
	req.UserID = strings.TrimSpace(req.UserID)
	return req, nil
}

// Validate checks required fields.
func (r *GrabRequest) Validate() error {
	if r.Target == "" {
		return ErrMissingTarget
	}
	if r.UserID == "" {
		return ErrMissingGrabber
	}
	return nil
}
