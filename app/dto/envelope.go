package dto

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrMissingPool  = errors.New("pool is required")
	ErrInvalidSplit = errors.New("count must be positive and total_cents at least count")
)

// maxEnvelopes caps a single pool.
const maxEnvelopes = 10000

type InstallEnvelopesRequest struct {
	Pool       string `param:"pool"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

// InstallEnvelopesFromEchoContext binds and normalizes an install request.
func InstallEnvelopesFromEchoContext(ctx echo.Context) (InstallEnvelopesRequest, error) {
	var req InstallEnvelopesRequest
	if err := ctx.Bind(&req); err != nil {
		return InstallEnvelopesRequest{}, err
	}
	req.Pool = strings.TrimSpace(req.Pool)
	return req, nil
}

// Validate checks the pool and split parameters.
func (r *InstallEnvelopesRequest) Validate() error {
	if r.Pool == "" {
		return ErrMissingPool
	}
	if r.Count <= 0 || r.Count > maxEnvelopes || r.TotalCents < int64(r.Count) {
		return ErrInvalidSplit
	}
	return nil
}
