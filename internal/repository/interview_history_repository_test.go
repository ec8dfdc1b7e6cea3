package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
)

func TestInterviewHistoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewHistoryRepository(db)

	ts := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (university_id, department_id)")).
		WithArgs("S1", 2, models.AttendancePresent, ts, "agent-1").
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "university_id", "department_id", "interview_status", "timestamp", "reviewed_by"}).
			AddRow(4, "S1", 2, "Present", ts, "agent-1"))

	stored, err := repo.Upsert(context.Background(), &models.InterviewHistory{
		UniversityID:    "S1",
		DepartmentID:    2,
		InterviewStatus: models.AttendancePresent,
		Timestamp:       ts,
		ReviewedBy:      "agent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.HistoryID)
	assert.Equal(t, models.AttendancePresent, stored.InterviewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewHistoryListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewHistoryRepository(db)

	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE h.university_id = $1")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "university_id", "department_id", "interview_status", "timestamp", "reviewed_by", "department_name", "agent_name"}).
			AddRow(1, "S1", 1, "Present", ts, "agent-1", "Medical", "Agent One").
			AddRow(2, "S1", 2, "Absent", ts, "agent-2", "Dental", nil))

	items, err := repo.ListByStudent(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Medical", items[0].Department)
	require.NotNil(t, items[0].Agent)
	assert.Equal(t, "Agent One", *items[0].Agent)
	assert.Nil(t, items[1].Agent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewHistoryDepartmentNameMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewHistoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM departments WHERE department_id = $1")).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.DepartmentName(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
