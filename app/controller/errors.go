package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

// writeError maps a service error onto an HTTP status and JSON body.
func writeError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrSeatNotFound):
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSeatTaken),
		errors.Is(err, service.ErrCourseFull),
		errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrNotSeatHolder),
		errors.Is(err, service.ErrSoldOut),
		errors.Is(err, service.ErrAlreadyHolding),
		errors.Is(err, service.ErrNoEnvelopes),
		errors.Is(err, service.ErrAlreadyGrabbed),
		errors.Is(err, service.ErrDuplicateRequestID):
		return ctx.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidSplit), errors.Is(err, service.ErrUnknownClaimKind):
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBusy):
		ctx.Response().Header().Set("Retry-After", "1")
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, lock.ErrStoreUnavailable), errors.Is(err, lock.ErrLeaseLost):
		logrus.WithError(err).Error("lock failure while serving request")
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "lock service unavailable"})
	default:
		logrus.WithError(err).Error("request failed")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
