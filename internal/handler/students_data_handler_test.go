package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/middleware"
	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	"github.com/noah-isme/interviews-api/internal/service"
	"github.com/noah-isme/interviews-api/pkg/storage"
)

type studentsDataStoreStub struct {
	ledger *ledgerStub
	rows   map[string]models.StudentsData
}

func (s *studentsDataStoreStub) FindByID(ctx context.Context, universityID string) (*models.StudentsData, error) {
	row, ok := s.rows[universityID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (s *studentsDataStoreStub) Submit(ctx context.Context, data *models.StudentsData) (*models.StudentStatus, error) {
	if _, ok := s.rows[data.UniversityID]; ok {
		return nil, repository.ErrAlreadySubmitted
	}
	s.rows[data.UniversityID] = *data
	status := models.StudentStatus{StatusID: int64(len(s.ledger.rows) + 1), UniversityID: data.UniversityID, Status: models.StatusNew}
	s.ledger.rows = append(s.ledger.rows, status)
	return &status, nil
}

func (s *studentsDataStoreStub) Update(ctx context.Context, data *models.StudentsData) error {
	if _, ok := s.rows[data.UniversityID]; !ok {
		return sql.ErrNoRows
	}
	s.rows[data.UniversityID] = *data
	return nil
}

func newStudentsDataRouter(t *testing.T) (*gin.Engine, *studentsDataStoreStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ledger := &ledgerStub{}
	store := &studentsDataStoreStub{ledger: ledger, rows: map[string]models.StudentsData{}}
	statusSvc := service.NewStatusService(ledger, nil, nil, nil, nil, nil, nil, nil, nil, "")
	svc := service.NewStudentsDataService(store, statusSvc, files, storage.NewSignedURLSigner("test-secret", time.Minute), nil, nil, nil, service.StudentsDataConfig{
		AllowedMIMEs: []string{"image/png", "image/jpeg"},
		DownloadPath: "/api/v1/students-data/attachments",
	})

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:           NewAuthHandler(nil),
		Bookings:       NewBookingHandler(nil),
		Schedules:      NewScheduleHandler(nil),
		Status:         NewStatusHandler(statusSvc),
		StudentsData:   NewStudentsDataHandler(svc),
		MailingContent: NewMailingContentHandler(nil),
		Interviews:     NewInterviewHandler(nil, nil),
		Metrics:        NewMetricsHandler(nil, nil),
	}, middleware.JWT(tokens))
	return r, store
}

func multipartSubmission(t *testing.T, universityID, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("universityId", universityID))
	require.NoError(t, w.WriteField("referralSource", "Friend"))
	if content != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func send(r *gin.Engine, method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitStudentsDataAndDownload(t *testing.T) {
	r, store := newStudentsDataRouter(t)

	body, contentType := multipartSubmission(t, "S1", "image/png", "png-bytes")
	w := send(r, http.MethodPost, "/api/v1/students-data", "student-s1", contentType, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data models.StudentsDataView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, models.StatusNew, env.Data.Status)
	assert.False(t, env.Data.IsLocked)
	require.True(t, strings.HasPrefix(env.Data.DownloadURL, "/api/v1/students-data/attachments/"))
	assert.Equal(t, "Friend", store.rows["S1"].ReferralSource)

	w = send(r, http.MethodGet, env.Data.DownloadURL, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	body, contentType = multipartSubmission(t, "S1", "image/png", "again")
	w = send(r, http.MethodPost, "/api/v1/students-data", "student-s1", contentType, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitStudentsDataRejections(t *testing.T) {
	r, store := newStudentsDataRouter(t)

	body, contentType := multipartSubmission(t, "S2", "image/png", "png-bytes")
	w := send(r, http.MethodPost, "/api/v1/students-data", "student-s1", contentType, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body, contentType = multipartSubmission(t, "S1", "image/png", "")
	w = send(r, http.MethodPost, "/api/v1/students-data", "student-s1", contentType, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartSubmission(t, "S1", "application/x-msdownload", "MZ")
	w = send(r, http.MethodPost, "/api/v1/students-data", "student-s1", contentType, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartSubmission(t, "S1", "image/png", "png-bytes")
	w = send(r, http.MethodPost, "/api/v1/students-data", "agent", contentType, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Empty(t, store.rows)
}

func TestAttachmentRejectsTamperedToken(t *testing.T) {
	r, _ := newStudentsDataRouter(t)

	w := send(r, http.MethodGet, "/api/v1/students-data/attachments/not.a.valid.token", "", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentsDataReviewIsStaffOnly(t *testing.T) {
	r, store := newStudentsDataRouter(t)
	store.rows["S1"] = models.StudentsData{UniversityID: "S1", ReferralSource: "Web"}
	store.ledger.rows = []models.StudentStatus{{StatusID: 1, UniversityID: "S1", Status: models.StatusNew}}

	w := send(r, http.MethodGet, "/api/v1/students-data/S1/review", "student-s1", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(r, http.MethodGet, "/api/v1/students-data/S1", "student-s1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
