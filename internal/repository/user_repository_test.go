package repository

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
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	dept := 2
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "department_id", "active", "last_login", "created_at"}).
		AddRow("1", "agent@example.com", "hash", "Agent", string(models.RoleAgent), dept, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("agent@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "agent@example.com")
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", user.Email)
	require.NotNil(t, user.DepartmentID)
	assert.Equal(t, 2, *user.DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{TableName: "StudentBooking", Description: "Student U1 booked ScheduleID 7"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuditLogsFiltersByTable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE table_name = $1")).
		WithArgs("StudentStatus").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE table_name = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("StudentStatus", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_email", "table_name", "description", "ip_address", "created_at"}).
			AddRow("log-1", "u1", "admin@example.com", "StudentStatus", "Status changed", "127.0.0.1", time.Now()))

	logs, total, err := repo.ListAuditLogs(context.Background(), "StudentStatus", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "StudentStatus", logs[0].TableName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
