package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type resultStoreStub struct {
	results     map[string]*models.InterviewResult
	summaryRuns int
	lastRange   models.SummaryRange
	presentDept int
}

func (r *resultStoreStub) List(ctx context.Context) ([]models.InterviewResult, error) {
	return nil, nil
}

func (r *resultStoreStub) FindByStudent(ctx context.Context, universityID string) (*models.InterviewResult, error) {
	if item, ok := r.results[universityID]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func (r *resultStoreStub) Create(ctx context.Context, item *models.InterviewResult) error {
	if _, ok := r.results[item.UniversityID]; ok {
		return repository.ErrAlreadyExists
	}
	r.results[item.UniversityID] = item
	return nil
}

func (r *resultStoreStub) UpdateOutcome(ctx context.Context, universityID string, outcome models.Outcome, ts time.Time) error {
	item, ok := r.results[universityID]
	if !ok {
		return sql.ErrNoRows
	}
	item.InterviewStatus = outcome
	return nil
}

func (r *resultStoreStub) Delete(ctx context.Context, universityID string) error {
	if _, ok := r.results[universityID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.results, universityID)
	return nil
}

func (r *resultStoreStub) ListPresentWithoutResult(ctx context.Context, departmentID int) ([]models.Student, error) {
	r.presentDept = departmentID
	return []models.Student{{UniversityID: "S7"}}, nil
}

func (r *resultStoreStub) CollegeSummary(ctx context.Context, rng models.SummaryRange) ([]models.CollegeSummary, error) {
	r.summaryRuns++
	r.lastRange = rng
	return []models.CollegeSummary{{College: "Engineering", Accepted: 2}}, nil
}

func TestInterviewResultCreateConflict(t *testing.T) {
	store := &resultStoreStub{results: map[string]*models.InterviewResult{}}
	svc := NewInterviewResultService(store, nil, &auditSpy{}, nil, nil)
	dept := models.DepartmentPersonalInterview
	actor := models.Actor{UserID: "agent-1", DepartmentID: &dept}

	created, err := svc.Create(context.Background(), models.InterviewResultRequest{UniversityID: "S1", Result: "accepted"}, actor)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, created.InterviewStatus)
	assert.Equal(t, dept, created.DepartmentID)
	assert.Equal(t, "agent-1", created.ReviewedBy)

	_, err = svc.Create(context.Background(), models.InterviewResultRequest{UniversityID: "S1", Result: "Rejected"}, actor)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)

	_, err = svc.Create(context.Background(), models.InterviewResultRequest{UniversityID: "S2", Result: "Accepted"}, models.Actor{UserID: "agent-2"})
	assert.Equal(t, appErrors.ErrForbidden.Code, codeOf(err))
}

func TestInterviewResultUpdate(t *testing.T) {
	store := &resultStoreStub{results: map[string]*models.InterviewResult{"S1": {UniversityID: "S1", InterviewStatus: models.OutcomePending}}}
	svc := NewInterviewResultService(store, nil, nil, nil, nil)

	err := svc.Update(context.Background(), "S1", models.InterviewResultRequest{UniversityID: "S2", Result: "Accepted"}, models.Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	err = svc.Update(context.Background(), "S1", models.InterviewResultRequest{UniversityID: "S1", Result: "Maybe"}, models.Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	require.NoError(t, svc.Update(context.Background(), "S1", models.InterviewResultRequest{UniversityID: "S1", Result: "Accepted"}, models.Actor{}))
	assert.Equal(t, models.OutcomeAccepted, store.results["S1"].InterviewStatus)

	err = svc.Delete(context.Background(), "S9", models.Actor{})
	assert.Equal(t, appErrors.ErrNotFound.Code, codeOf(err))
}

func TestInterviewResultPresentAndSummary(t *testing.T) {
	store := &resultStoreStub{results: map[string]*models.InterviewResult{}}
	svc := NewInterviewResultService(store, nil, nil, nil, nil)

	present, err := svc.Present(context.Background())
	require.NoError(t, err)
	assert.Len(t, present, 1)
	assert.Equal(t, models.DepartmentPersonalInterview, store.presentDept)

	from := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err = svc.CollegeSummary(context.Background(), models.SummaryRange{From: &from, To: &to})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))
	_, err = svc.CollegeSummary(context.Background(), models.SummaryRange{To: &to})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	summary, err := svc.CollegeSummary(context.Background(), models.SummaryRange{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, summary[0].Accepted)
	assert.Equal(t, &from, store.lastRange.From)
	assert.Equal(t, "2025-09-02:all", summaryKey(store.lastRange))
}
