package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/storage"
)

type studentsDataStub struct {
	rows    map[string]*models.StudentsData
	ledger  *memoryLedger
	updates int
}

func (s *studentsDataStub) FindByID(ctx context.Context, universityID string) (*models.StudentsData, error) {
	if row, ok := s.rows[universityID]; ok {
		out := *row
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentsDataStub) Submit(ctx context.Context, data *models.StudentsData) (*models.StudentStatus, error) {
	if _, ok := s.rows[data.UniversityID]; ok {
		return nil, repository.ErrAlreadySubmitted
	}
	stored := *data
	s.rows[data.UniversityID] = &stored
	return s.ledger.Transition(ctx, data.UniversityID, func(ctx context.Context, latest *models.StudentStatus) (*repository.TransitionPlan, error) {
		return &repository.TransitionPlan{Next: &models.StudentStatus{Status: models.StatusNew}}, nil
	})
}

func (s *studentsDataStub) Update(ctx context.Context, data *models.StudentsData) error {
	if _, ok := s.rows[data.UniversityID]; !ok {
		return sql.ErrNoRows
	}
	stored := *data
	s.rows[data.UniversityID] = &stored
	s.updates++
	return nil
}

type studentsDataFixture struct {
	svc    *StudentsDataService
	store  *studentsDataStub
	ledger *memoryLedger
	files  *storage.LocalStorage
}

func newStudentsDataFixture(t *testing.T, rows ...models.StudentStatus) *studentsDataFixture {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	status := newStatusFixture(rows...)
	store := &studentsDataStub{rows: map[string]*models.StudentsData{}, ledger: status.ledger}
	svc := NewStudentsDataService(store, status.svc, files, storage.NewSignedURLSigner("secret", 0), &auditSpy{}, nil, nil, StudentsDataConfig{
		MaxFileSize:  1024,
		AllowedMIMEs: []string{"image/png", "image/jpeg"},
		DownloadPath: "/api/v1/students-data/attachments/",
	})
	return &studentsDataFixture{svc: svc, store: store, ledger: status.ledger, files: files}
}

func pngUpload(body string) (io.Reader, *models.Attachment) {
	return strings.NewReader(body), &models.Attachment{Filename: "Photo.PNG", ContentType: "image/png", Size: int64(len(body))}
}

func TestStudentsDataSubmitOpensLedger(t *testing.T) {
	f := newStudentsDataFixture(t)
	image, meta := pngUpload("png-bytes")

	view, err := f.svc.Submit(context.Background(), models.SubmitStudentsDataRequest{UniversityID: "S1", ReferralSource: "Friend"}, image, meta, models.Actor{UserID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, view.Status)
	assert.False(t, view.IsLocked)
	assert.True(t, strings.HasPrefix(view.ImageAttach, "attachments/"))
	assert.True(t, strings.HasSuffix(view.ImageAttach, ".png"))
	assert.True(t, strings.HasPrefix(view.DownloadURL, "/api/v1/students-data/attachments/"))

	token := strings.TrimPrefix(view.DownloadURL, "/api/v1/students-data/attachments/")
	file, name, err := f.svc.OpenAttachment(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
	assert.True(t, strings.HasSuffix(name, ".png"))

	image, meta = pngUpload("again")
	_, err = f.svc.Submit(context.Background(), models.SubmitStudentsDataRequest{UniversityID: "S1", ReferralSource: "Friend"}, image, meta, models.Actor{})
	assert.Equal(t, appErrors.ErrConflict.Code, codeOf(err))
}

func TestStudentsDataSubmitValidatesImage(t *testing.T) {
	f := newStudentsDataFixture(t)
	req := models.SubmitStudentsDataRequest{UniversityID: "S1", ReferralSource: "Friend"}

	_, err := f.svc.Submit(context.Background(), req, nil, nil, models.Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	_, err = f.svc.Submit(context.Background(), req, strings.NewReader("x"), &models.Attachment{Filename: "a.exe", ContentType: "application/x-msdownload", Size: 1}, models.Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	_, err = f.svc.Submit(context.Background(), req, strings.NewReader("x"), &models.Attachment{Filename: "a.png", ContentType: "image/png", Size: 4096}, models.Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))
	assert.Empty(t, f.store.rows)
}

func TestStudentsDataEditRespectsLock(t *testing.T) {
	f := newStudentsDataFixture(t,
		models.StudentStatus{UniversityID: "S1", Status: models.StatusPending, IsLocked: true},
		models.StudentStatus{UniversityID: "S2", Status: models.StatusFulfilled, IsLocked: true},
	)
	f.store.rows["S1"] = &models.StudentsData{UniversityID: "S1", ReferralSource: "Old", ImageAttach: "attachments/old.png"}
	f.store.rows["S2"] = &models.StudentsData{UniversityID: "S2", ReferralSource: "Old"}

	view, err := f.svc.Edit(context.Background(), models.SubmitStudentsDataRequest{UniversityID: "S1", ReferralSource: "New"}, nil, nil, models.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "New", view.ReferralSource)
	assert.Equal(t, "attachments/old.png", view.ImageAttach)
	assert.False(t, view.IsLocked)

	_, err = f.svc.Edit(context.Background(), models.SubmitStudentsDataRequest{UniversityID: "S2", ReferralSource: "New"}, nil, nil, models.Actor{})
	assert.Equal(t, appErrors.ErrEditLocked.Code, codeOf(err))
	assert.Equal(t, "Old", f.store.rows["S2"].ReferralSource)
	assert.Equal(t, 1, f.store.updates)
}

func TestStudentsDataReviewLocksNewSubmission(t *testing.T) {
	f := newStudentsDataFixture(t, models.StudentStatus{UniversityID: "S1", Status: models.StatusNew})
	f.store.rows["S1"] = &models.StudentsData{UniversityID: "S1", ReferralSource: "Web"}

	view, err := f.svc.Review(context.Background(), "S1", models.Actor{UserID: "agent-1"})
	require.NoError(t, err)
	assert.True(t, view.IsLocked)

	_, err = f.svc.Info(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, codeOf(err))
}
