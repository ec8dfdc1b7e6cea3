package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
)

func TestInterviewResultCreateConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (university_id) DO NOTHING")).
		WithArgs("U1", 1, "Accepted", sqlmock.AnyArg(), "agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"result_id"}))

	err := repo.Create(context.Background(), &models.InterviewResult{UniversityID: "U1", DepartmentID: 1, InterviewStatus: models.OutcomeAccepted, ReviewedBy: "agent-1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewResultCollegeSummarySingleDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewResultRepository(db)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND r.timestamp::date = $1::date")).
		WithArgs("2026-09-01").
		WillReturnRows(sqlmock.NewRows([]string{"college", "accepted", "rejected", "pending"}).
			AddRow("Engineering", 3, 1, 0))

	items, err := repo.CollegeSummary(context.Background(), models.SummaryRange{From: &day})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewHistoryUpsertFromResultSuite(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewHistoryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (university_id, department_id)")).
		WithArgs("U1", 2, "Present", sqlmock.AnyArg(), "agent-2").
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "university_id", "department_id", "interview_status", "timestamp", "reviewed_by"}).
			AddRow(5, "U1", 2, "Present", now, "agent-1"))

	stored, err := repo.Upsert(context.Background(), &models.InterviewHistory{UniversityID: "U1", DepartmentID: 2, InterviewStatus: models.AttendancePresent, ReviewedBy: "agent-2"})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", stored.ReviewedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
