package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/notifier"
	"github.com/vibast-solutions/ms-go-reservations/app/queue"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type mockPublisher struct {
	err      error
	messages []queue.ClaimMessage
}

func (p *mockPublisher) Publish(_ context.Context, msg queue.ClaimMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newLocker(client *redis.Client) *lock.Locker {
	return lock.NewLocker(lock.NewRedisStore(client), lock.Config{
		RetryInterval:  5 * time.Millisecond,
		AcquireTimeout: 100 * time.Millisecond,
	})
}

func call(t *testing.T, handler echo.HandlerFunc, method string, body string, names []string, values []string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames(names...)
	ctx.SetParamValues(values...)

	if err := handler(ctx); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestTicketControllerFlow(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	ctrl := NewTicketController(service.NewTicketService(newLocker(client), repository.NewTicketRepository(client)))
	event := []string{"event"}

	rec := call(t, ctrl.SetQuantity, http.MethodPut, `{"quantity":1}`, event, []string{"concert"})
	if rec.Code != http.StatusOK {
		t.Fatalf("SetQuantity: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = call(t, ctrl.Grab, http.MethodPost, `{"user_id":"u1"}`, event, []string{"concert"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Grab: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body := decode(t, rec); body["remaining"] != float64(0) {
		t.Fatalf("expected 0 remaining, got %v", body["remaining"])
	}

	rec = call(t, ctrl.Grab, http.MethodPost, `{"user_id":"u2"}`, event, []string{"concert"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Grab sold out: expected 409, got %d", rec.Code)
	}

	rec = call(t, ctrl.Grab, http.MethodPost, `{}`, event, []string{"concert"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Grab without user: expected 400, got %d", rec.Code)
	}

	rec = call(t, ctrl.Remaining, http.MethodGet, ``, event, []string{"concert"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Remaining: expected 200, got %d", rec.Code)
	}
}

func TestTicketControllerBusy(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	ctrl := NewTicketController(service.NewTicketService(newLocker(client), repository.NewTicketRepository(client)))
	if err := mr.Set("lock:tickets:concert", "someone"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rec := call(t, ctrl.Grab, http.MethodPost, `{"user_id":"u1"}`, []string{"event"}, []string{"concert"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestEnvelopeControllerFlow(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	ctrl := NewEnvelopeController(service.NewEnvelopeService(newLocker(client), repository.NewEnvelopeRepository(client), nil))
	pool := []string{"pool"}

	rec := call(t, ctrl.Install, http.MethodPost, `{"count":1,"total_cents":500}`, pool, []string{"p1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Install: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = call(t, ctrl.Grab, http.MethodPost, `{"user_id":"u1"}`, pool, []string{"p1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Grab: expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["amount_cents"] != float64(500) {
		t.Fatalf("expected 500 cents, got %v", body["amount_cents"])
	}

	rec = call(t, ctrl.Grab, http.MethodPost, `{"user_id":"u2"}`, pool, []string{"p1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Grab empty: expected 409, got %d", rec.Code)
	}

	rec = call(t, ctrl.Install, http.MethodPost, `{"count":5,"total_cents":4}`, pool, []string{"p1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Install bad split: expected 400, got %d", rec.Code)
	}
}

func TestCourseControllerEnroll(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	_, client := newRedis(t)
	seats := repository.NewSeatMapRepository(client)
	if err := seats.Open(context.Background(), "c1", "7"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	svc := service.NewEnrollmentService(newLocker(client), repository.NewCourseRepository(db), repository.NewEnrollmentRepository(db), seats, notifier.NewNoopNotifier())
	ctrl := NewCourseController(svc)

	mock.ExpectQuery("SELECT id, title, capacity, available_seats").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "capacity", "available_seats"}).AddRow("c1", "DS", 1, 1))
	mock.ExpectQuery("SELECT 1").
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs("s1", "c1", "7").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE courses").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := call(t, ctrl.Enroll, http.MethodPost, `{"student_id":"s1","seat":"7"}`, []string{"course_id"}, []string{"c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Enroll: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	mock.ExpectQuery("SELECT id, title, capacity, available_seats").
		WithArgs("c9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "capacity", "available_seats"}))
	rec = call(t, ctrl.Enroll, http.MethodPost, `{"student_id":"s1","seat":"7"}`, []string{"course_id"}, []string{"c9"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Enroll unknown course: expected 404, got %d", rec.Code)
	}

	rec = call(t, ctrl.Enroll, http.MethodPost, `{"student_id":"s1"}`, []string{"course_id"}, []string{"c1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Enroll without seat: expected 400, got %d", rec.Code)
	}

	rec = call(t, ctrl.Seats, http.MethodGet, ``, []string{"course_id"}, []string{"c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Seats: expected 200, got %d", rec.Code)
	}

	rec = call(t, ctrl.Withdraw, http.MethodPost, `{"student_id":"s2","seat":"7"}`, []string{"course_id"}, []string{"c1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Withdraw by non-holder: expected 409, got %d", rec.Code)
	}

	mock.ExpectExec("DELETE FROM enrollments").
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE courses").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = call(t, ctrl.Withdraw, http.MethodPost, `{"student_id":"s1","seat":"7"}`, []string{"course_id"}, []string{"c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Withdraw: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if status, _, _ := seats.Status(context.Background(), "c1", "7"); status != entity.SeatAvailable {
		t.Fatalf("expected seat 7 available after withdraw, got %q", status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func newClaimController(t *testing.T, pub ClaimPublisher) *ClaimController {
	t.Helper()
	_, client := newRedis(t)
	claims := service.NewClaimService(repository.NewClaimResultRepository(client), nil, nil, nil)
	return NewClaimController(claims, pub)
}

func TestClaimControllerSubmit(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	ctrl := newClaimController(t, pub)

	rec := call(t, ctrl.Submit, http.MethodPost, `{"request_id":"req-1","kind":"ticket","event":"concert","user_id":"u1"}`, nil, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(pub.messages) != 1 || pub.messages[0].Event != "concert" {
		t.Fatalf("expected published claim, got %+v", pub.messages)
	}

	rec = call(t, ctrl.Submit, http.MethodPost, `{"request_id":"req-1","kind":"ticket","event":"concert","user_id":"u1"}`, nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rec.Code)
	}

	rec = call(t, ctrl.Result, http.MethodGet, ``, []string{"request_id"}, []string{"req-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Result: expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != entity.ClaimStatusPending {
		t.Fatalf("expected pending, got %v", body["status"])
	}

	rec = call(t, ctrl.Result, http.MethodGet, ``, []string{"request_id"}, []string{"missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Result missing: expected 404, got %d", rec.Code)
	}
}

func TestClaimControllerGeneratesRequestID(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	ctrl := newClaimController(t, pub)

	rec := call(t, ctrl.Submit, http.MethodPost, `{"kind":"envelope","pool":"p1","user_id":"u1"}`, nil, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if body := decode(t, rec); body["request_id"] == "" || body["request_id"] == nil {
		t.Fatalf("expected generated request_id, got %v", body)
	}
}

func TestClaimControllerPublishFailureForgetsRequest(t *testing.T) {
	t.Parallel()

	ctrl := newClaimController(t, &mockPublisher{err: errors.New("stream down")})

	rec := call(t, ctrl.Submit, http.MethodPost, `{"request_id":"req-1","kind":"ticket","event":"concert","user_id":"u1"}`, nil, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	rec = call(t, ctrl.Result, http.MethodGet, ``, []string{"request_id"}, []string{"req-1"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected forgotten request, got %d", rec.Code)
	}
}
