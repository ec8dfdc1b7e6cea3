package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/middleware"
	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	"github.com/noah-isme/interviews-api/internal/service"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

var tokens = tokenTable{
	"student-s1": {UserID: "S1", Role: models.RoleStudent},
	"agent":      {UserID: "agent-1", Role: models.RoleAgent},
	"admin":      {UserID: "admin-1", Role: models.RoleAdmin},
}

type bookingStoreStub struct {
	err    error
	booked []string
	ledger *ledgerStub
}

func (s *bookingStoreStub) Book(ctx context.Context, universityID string, scheduleID int64, requireFulfilled bool) (*models.StudentBooking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if requireFulfilled {
		if latest := s.ledger.latest(universityID); latest == nil || latest.Status != models.StatusFulfilled {
			return nil, repository.ErrNotEligible
		}
	}
	s.booked = append(s.booked, universityID)
	return &models.StudentBooking{BookingID: int64(len(s.booked)), UniversityID: universityID, ScheduleID: scheduleID, BookedAt: time.Now()}, nil
}

func (s *bookingStoreStub) List(ctx context.Context) ([]models.BookingView, error) {
	return []models.BookingView{}, nil
}

func (s *bookingStoreStub) FindByStudent(ctx context.Context, universityID string) (*models.BookingView, error) {
	return nil, sql.ErrNoRows
}

func (s *bookingStoreStub) ListByDate(ctx context.Context, day time.Time) ([]models.BookingView, error) {
	return nil, nil
}

func (s *bookingStoreStub) ListByCollege(ctx context.Context, college string) ([]models.CollegeBooking, error) {
	return nil, nil
}

func (s *bookingStoreStub) Slip(ctx context.Context, universityID string) (*models.BookingSlip, error) {
	if universityID != "S1" {
		return nil, sql.ErrNoRows
	}
	return &models.BookingSlip{BookingID: 7, UniversityID: "S1", Name: "Sara", Location: "D126", InterviewDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}, nil
}

type ledgerStub struct {
	rows []models.StudentStatus
}

func (l *ledgerStub) latest(universityID string) *models.StudentStatus {
	var found *models.StudentStatus
	for i := range l.rows {
		if l.rows[i].UniversityID == universityID {
			found = &l.rows[i]
		}
	}
	return found
}

func (l *ledgerStub) Latest(ctx context.Context, universityID string) (*models.StudentStatus, error) {
	if row := l.latest(universityID); row != nil {
		copied := *row
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (l *ledgerStub) ListAll(ctx context.Context) ([]models.StudentStatus, error) {
	return l.rows, nil
}

func (l *ledgerStub) ListLatest(ctx context.Context) ([]models.StudentStatus, error) {
	return l.rows, nil
}

func (l *ledgerStub) Transition(ctx context.Context, universityID string, fn repository.TransitionFunc) (*models.StudentStatus, error) {
	plan, err := fn(ctx, l.latest(universityID))
	if err != nil {
		return nil, err
	}
	next := *plan.Next
	next.StatusID = int64(len(l.rows) + 1)
	next.UniversityID = universityID
	l.rows = append(l.rows, next)
	return &next, nil
}

func (l *ledgerStub) Amend(ctx context.Context, universityID string, fn repository.AmendFunc) (*models.StudentStatus, error) {
	return l.Latest(ctx, universityID)
}

type fixture struct {
	router   *gin.Engine
	bookings *bookingStoreStub
	ledger   *ledgerStub
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	ledger := &ledgerStub{}
	f := &fixture{bookings: &bookingStoreStub{ledger: ledger}, ledger: ledger}

	bookingSvc := service.NewBookingService(f.bookings, nil, nil, nil, nil, nil, nil, nil)
	statusSvc := service.NewStatusService(f.ledger, nil, nil, nil, nil, nil, nil, nil, nil, "")

	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1"), Handlers{
		Auth:           NewAuthHandler(nil),
		Bookings:       NewBookingHandler(bookingSvc),
		Schedules:      NewScheduleHandler(nil),
		Status:         NewStatusHandler(statusSvc),
		StudentsData:   NewStudentsDataHandler(nil),
		MailingContent: NewMailingContentHandler(nil),
		Interviews:     NewInterviewHandler(nil, nil),
		Metrics:        NewMetricsHandler(nil, nil),
	}, middleware.JWT(tokens))
	return f
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBookUsesStudentsOwnID(t *testing.T) {
	f := newFixture()
	f.ledger.rows = []models.StudentStatus{{StatusID: 1, UniversityID: "S1", Status: models.StatusFulfilled, IsLocked: true}}

	w := f.do(http.MethodPost, "/api/v1/bookings", "student-s1", map[string]interface{}{"scheduleId": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, "Booking successful and status updated to Reserved.", env.Data["message"])
	assert.Equal(t, []string{"S1"}, f.bookings.booked)
}

func TestBookRequiresFulfilledStudent(t *testing.T) {
	f := newFixture()
	f.ledger.rows = []models.StudentStatus{{StatusID: 1, UniversityID: "S1", Status: models.StatusPending}}

	w := f.do(http.MethodPost, "/api/v1/bookings", "student-s1", map[string]interface{}{"scheduleId": 3})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotEligible.Code, env.Error.Code)
	assert.Empty(t, f.bookings.booked)

	w = f.do(http.MethodPost, "/api/v1/bookings", "agent", map[string]interface{}{"universityId": "S1", "scheduleId": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"S1"}, f.bookings.booked)
}

func TestBookRejectsOtherStudent(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/bookings", "student-s1", map[string]interface{}{"universityId": "S2", "scheduleId": 3})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.bookings.booked)
}

func TestBookMapsAllocatorErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing schedule", sql.ErrNoRows, http.StatusNotFound, appErrors.ErrScheduleNotFound.Code},
		{"capacity full", repository.ErrCapacityFull, http.StatusBadRequest, appErrors.ErrCapacityFull.Code},
		{"already booked", repository.ErrAlreadyBooked, http.StatusBadRequest, appErrors.ErrAlreadyBooked.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.bookings.err = tc.err

			w := f.do(http.MethodPost, "/api/v1/bookings", "agent", map[string]interface{}{"universityId": "S9", "scheduleId": 1})
			require.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestBookRequiresToken(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{"scheduleId": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/bookings", "forged", map[string]interface{}{"scheduleId": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSlipDownload(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/v1/bookings/student/S1/slip", "student-s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "booking-S1.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = f.do(http.MethodGet, "/api/v1/bookings/student/S2/slip", "student-s1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusUpdateIsStaffOnly(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/status/update", "student-s1", map[string]string{"universityId": "S1", "newStatus": "Pending"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.ledger.rows)
}

func TestStatusUpdate(t *testing.T) {
	f := newFixture()
	f.ledger.rows = []models.StudentStatus{{StatusID: 1, UniversityID: "S1", Status: models.StatusNew}}

	w := f.do(http.MethodPost, "/api/v1/status/update", "agent", map[string]string{"universityId": "S1", "newStatus": "pending"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, "agent-1", env.Data["reviewedBy"])
	require.Len(t, f.ledger.rows, 2)
	assert.Equal(t, models.StatusPending, f.ledger.rows[1].Status)
	assert.False(t, f.ledger.rows[1].IsLocked)
}

func TestStatusUpdateRejectsClosedStudent(t *testing.T) {
	f := newFixture()
	f.ledger.rows = []models.StudentStatus{{StatusID: 1, UniversityID: "S1", Status: models.StatusReserved, IsLocked: true}}

	w := f.do(http.MethodPost, "/api/v1/status/update", "admin", map[string]string{"universityId": "S1", "newStatus": "Rejected"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, env.Error.Code)
	assert.Len(t, f.ledger.rows, 1)
}

func TestLatestStatusSelfAccess(t *testing.T) {
	f := newFixture()
	f.ledger.rows = []models.StudentStatus{
		{StatusID: 1, UniversityID: "S1", Status: models.StatusNew},
		{StatusID: 2, UniversityID: "S2", Status: models.StatusPending},
	}

	w := f.do(http.MethodGet, "/api/v1/status/latest/S1", "student-s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New", decode(t, w).Data["status"])

	w = f.do(http.MethodGet, "/api/v1/status/latest/S2", "student-s1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/api/v1/status/latest/S3", "agent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRejectAgents(t *testing.T) {
	f := newFixture()

	for _, path := range []string{"/api/v1/mailing-contents", "/api/v1/admin/audit-logs", "/api/v1/bookings/export"} {
		w := f.do(http.MethodGet, path, "agent", nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
