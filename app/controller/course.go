package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/dto"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type CourseController struct {
	enrollments *service.EnrollmentService
}

// NewCourseController constructs the HTTP course controller.
func NewCourseController(enrollments *service.EnrollmentService) *CourseController {
	return &CourseController{enrollments: enrollments}
}

// OpenSeats creates or resets a course seat map.
func (c *CourseController) OpenSeats(ctx echo.Context) error {
	req, err := dto.OpenSeatsFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.enrollments.OpenSeats(ctx.Request().Context(), req.CourseID, req.Title, req.Seats); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"course_id": req.CourseID, "seats": len(req.Seats)})
}

// Seats returns the seat map of a course.
func (c *CourseController) Seats(ctx echo.Context) error {
	seats, err := c.enrollments.Seats(ctx.Request().Context(), ctx.Param("course_id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"course_id": ctx.Param("course_id"), "seats": seats})
}

// Enroll assigns a seat to a student.
func (c *CourseController) Enroll(ctx echo.Context) error {
	req, err := dto.EnrollFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	enrollment, err := c.enrollments.Enroll(ctx.Request().Context(), service.EnrollRequest{
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		Seat:        req.Seat,
		NotifyEmail: req.NotifyEmail,
	})
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"course_id":  enrollment.CourseID,
		"student_id": enrollment.StudentID,
		"seat":       enrollment.Seat,
	})
}

// Withdraw gives a student's seat back to the course.
func (c *CourseController) Withdraw(ctx echo.Context) error {
	req, err := dto.EnrollFromEchoContext(ctx)
	if err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.enrollments.Withdraw(ctx.Request().Context(), service.EnrollRequest{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Seat:      req.Seat,
	}); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"course_id":  req.CourseID,
		"student_id": req.StudentID,
		"seat":       req.Seat,
		"status":     "withdrawn",
	})
}
