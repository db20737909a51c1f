package dto

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(body string, names []string, values []string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())
	ctx.SetParamNames(names...)
	ctx.SetParamValues(values...)
	return ctx
}

func TestEnrollFromEchoContextNormalizes(t *testing.T) {
	t.Parallel()

	ctx := newContext(`{"student_id":" s1 ","seat":" 7 ","notify_email":" a@b.com "}`, []string{"course_id"}, []string{" c1 "})
	req, err := EnrollFromEchoContext(ctx)
	if err != nil {
		t.Fatalf("EnrollFromEchoContext: %v", err)
	}
	if req.CourseID != "c1" || req.StudentID != "s1" || req.Seat != "7" || req.NotifyEmail != "a@b.com" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEnrollRequestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		req  EnrollRequest
		want error
	}{
		{name: "missing seat", req: EnrollRequest{CourseID: "c1", StudentID: "s1"}, want: ErrMissingEnrollFields},
		{name: "bad email", req: EnrollRequest{CourseID: "c1", StudentID: "s1", Seat: "7", NotifyEmail: "nope"}, want: ErrInvalidNotifyAddress},
		{name: "no email", req: EnrollRequest{CourseID: "c1", StudentID: "s1", Seat: "7"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.req.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenSeatsRequestValidate(t *testing.T) {
	t.Parallel()

	ctx := newContext(`{"title":"DS","seats":["1"," 2 "]}`, []string{"course_id"}, []string{"c1"})
	req, err := OpenSeatsFromEchoContext(ctx)
	if err != nil {
		t.Fatalf("OpenSeatsFromEchoContext: %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if req.Seats[1] != "2" {
		t.Fatalf("expected trimmed seat, got %q", req.Seats[1])
	}

	dup := OpenSeatsRequest{CourseID: "c1", Title: "DS", Seats: []string{"1", "1"}}
	if err := dup.Validate(); err != ErrDuplicateSeat {
		t.Fatalf("expected ErrDuplicateSeat, got %v", err)
	}
	empty := OpenSeatsRequest{CourseID: "c1", Title: "DS"}
	if err := empty.Validate(); err != ErrMissingCourseFields {
		t.Fatalf("expected ErrMissingCourseFields, got %v", err)
	}
}

func TestGrabFromEchoContext(t *testing.T) {
	t.Parallel()

	ctx := newContext(`{"user_id":"u1"}`, []string{"event"}, []string{"concert"})
	req, err := GrabFromEchoContext(ctx, "event")
	if err != nil {
		t.Fatalf("GrabFromEchoContext: %v", err)
	}
	if req.Target != "concert" || req.UserID != "u1" {
		t.Fatalf("unexpected request: %+v", req)
	}

	missing := GrabRequest{Target: "concert"}
	if err := missing.Validate(); err != ErrMissingGrabber {
		t.Fatalf("expected ErrMissingGrabber, got %v", err)
	}
}

func TestInstallEnvelopesRequestValidate(t *testing.T) {
	t.Parallel()

	ok := InstallEnvelopesRequest{Pool: "p1", Count: 10, TotalCents: 10}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	short := InstallEnvelopesRequest{Pool: "p1", Count: 10, TotalCents: 9}
	if err := short.Validate(); err != ErrInvalidSplit {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}
	negative := SetTicketsRequest{Event: "e1", Quantity: -1}
	if err := negative.Validate(); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestClaimRequestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		req  ClaimRequest
		want error
	}{
		{name: "missing kind", req: ClaimRequest{RequestID: "r1"}, want: ErrMissingClaimFields},
		{name: "unknown kind", req: ClaimRequest{RequestID: "r1", Kind: "parking"}, want: ErrUnknownClaimKind},
		{name: "ticket without user", req: ClaimRequest{RequestID: "r1", Kind: "ticket", Event: "e1"}, want: ErrIncompleteClaim},
		{name: "envelope", req: ClaimRequest{RequestID: "r1", Kind: "envelope", Pool: "p1", UserID: "u1"}},
		{name: "enrollment", req: ClaimRequest{RequestID: "r1", Kind: "enrollment", StudentID: "s1", CourseID: "c1", Seat: "7"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.req.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
