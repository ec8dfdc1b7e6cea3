package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

// A Fulfilled transition must not need a second connection while the
// student's transaction is open.
func TestUpdateStatusFulfilledOnSingleConnectionPool(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	raw.SetMaxOpenConns(1)
	db := sqlx.NewDb(raw, "postgres")

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM mailing_contents WHERE is_default = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"mail_id", "subject", "body", "is_default", "created_by"}).
			AddRow(1, "Book now", "Hello", true, "admin-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students st WHERE st.university_id = $1")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"university_id", "national_id", "full_name", "email", "phone", "college", "is_paid"}).
			AddRow("S1", "N1", "Sara", "s1@example.edu", "", "Medicine", ""))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("S1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_statuses")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "university_id", "status", "created_at", "reviewed_by", "is_locked"}).
			AddRow(3, "S1", "Pending", now, "agent-1", false))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_statuses")).
		WithArgs("S1", models.StatusFulfilled, sqlmock.AnyArg(), "agent-9", true).
		WillReturnRows(sqlmock.NewRows([]string{"status_id"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students_data SET mail_id = $1, mail_result = $2 WHERE university_id = $3")).
		WithArgs(int64(1), models.MailResultSent, "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sender := &senderStub{}
	svc := NewStatusService(
		repository.NewStatusRepository(db),
		repository.NewMailingContentRepository(db),
		repository.NewStudentRepository(db),
		repository.NewStudentsDataRepository(db),
		sender, nil, &auditSpy{}, nil, nil, testPortalURL,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := svc.UpdateStatus(ctx, models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Status.StatusID)
	assert.True(t, res.Status.IsLocked)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "s1@example.edu", sender.sent[0].To)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusClosedStudentWinsOverMissingTemplate(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusReserved, IsLocked: true})
	f.templates.def = nil

	_, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, codeOf(err))
	assert.Len(t, f.ledger.rows, 1)
	assert.Empty(t, f.sender.sent)
}
