package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const statusColumns = `status_id, university_id, status, created_at, reviewed_by, is_locked`

// MailUpdate is persisted on the student's submitted data together with a transition.
type MailUpdate struct {
	MailID int64
	Result models.MailResult
}

// TransitionPlan is what a TransitionFunc decides to write.
type TransitionPlan struct {
	Next *models.StudentStatus
	Mail *MailUpdate
}

// TransitionFunc inspects the current latest status (nil when the student has none)
// and returns the record to append. It runs while the student lock is held on
// the transaction's connection, so it must not query through the pool.
type TransitionFunc func(ctx context.Context, latest *models.StudentStatus) (*TransitionPlan, error)

// AmendFunc inspects the latest status and returns the change to apply in place.
// Returning a nil amendment leaves the row untouched.
type AmendFunc func(latest *models.StudentStatus) (*models.StatusAmendment, error)

// StatusRepository persists the student status ledger.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository constructs the repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Latest returns the most recent ledger row for the student. Rows sharing a
// timestamp are ordered by insertion.
func (r *StatusRepository) Latest(ctx context.Context, universityID string) (*models.StudentStatus, error) {
	return latestStatus(ctx, r.db, universityID, false)
}

// Append inserts a new ledger row and fills its generated fields.
func (r *StatusRepository) Append(ctx context.Context, status *models.StudentStatus) error {
	return appendStatus(ctx, r.db, status)
}

// ListAll returns the whole ledger, newest first.
func (r *StatusRepository) ListAll(ctx context.Context) ([]models.StudentStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM student_statuses ORDER BY created_at DESC, status_id DESC`
	var rows []models.StudentStatus
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list student statuses: %w", err)
	}
	return rows, nil
}

// ListLatest returns the current status of every student in the ledger.
func (r *StatusRepository) ListLatest(ctx context.Context) ([]models.StudentStatus, error) {
	query := `SELECT DISTINCT ON (university_id) ` + statusColumns + `
FROM student_statuses
ORDER BY university_id, created_at DESC, status_id DESC`
	var rows []models.StudentStatus
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list latest student statuses: %w", err)
	}
	return rows, nil
}

// Transition appends the record chosen by fn while holding the student's lock.
// The optional mail outcome is written in the same transaction.
func (r *StatusRepository) Transition(ctx context.Context, universityID string, fn TransitionFunc) (result *models.StudentStatus, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockStudent(ctx, tx, universityID); err != nil {
		return nil, err
	}

	latest, err := latestStatus(ctx, tx, universityID, false)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = nil

	plan, err := fn(ctx, latest)
	if err != nil {
		return nil, err
	}
	if plan == nil || plan.Next == nil {
		err = fmt.Errorf("transition for %s produced no status", universityID)
		return nil, err
	}

	next := plan.Next
	next.UniversityID = universityID
	if err = appendStatus(ctx, tx, next); err != nil {
		return nil, err
	}

	if plan.Mail != nil {
		if err = recordMail(ctx, tx, universityID, plan.Mail.MailID, plan.Mail.Result); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status transition: %w", err)
	}
	return next, nil
}

// Amend changes isLocked/reviewedBy on the latest ledger row in place. It is the
// only path that mutates an existing row. sql.ErrNoRows is returned when the
// student has no status yet.
func (r *StatusRepository) Amend(ctx context.Context, universityID string, fn AmendFunc) (result *models.StudentStatus, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status amend: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockStudent(ctx, tx, universityID); err != nil {
		return nil, err
	}

	latest, err := latestStatus(ctx, tx, universityID, true)
	if err != nil {
		return nil, err
	}

	change, err := fn(latest)
	if err != nil {
		return nil, err
	}

	if change != nil {
		const query = `UPDATE student_statuses SET is_locked = $1, reviewed_by = $2 WHERE status_id = $3`
		if _, err = tx.ExecContext(ctx, query, change.IsLocked, change.ReviewedBy, latest.StatusID); err != nil {
			return nil, fmt.Errorf("amend student status: %w", err)
		}
		latest.IsLocked = change.IsLocked
		latest.ReviewedBy = change.ReviewedBy
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status amend: %w", err)
	}
	return latest, nil
}

func latestStatus(ctx context.Context, q sqlx.QueryerContext, universityID string, forUpdate bool) (*models.StudentStatus, error) {
	query := `SELECT ` + statusColumns + `
FROM student_statuses
WHERE university_id = $1
ORDER BY created_at DESC, status_id DESC
LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var status models.StudentStatus
	if err := sqlx.GetContext(ctx, q, &status, query, universityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find latest student status: %w", err)
	}
	return &status, nil
}

func appendStatus(ctx context.Context, q sqlx.QueryerContext, status *models.StudentStatus) error {
	if status.CreatedAt.IsZero() {
		status.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_statuses (university_id, status, created_at, reviewed_by, is_locked)
VALUES ($1, $2, $3, $4, $5)
RETURNING status_id`
	if err := sqlx.GetContext(ctx, q, &status.StatusID, query, status.UniversityID, status.Status, status.CreatedAt, status.ReviewedBy, status.IsLocked); err != nil {
		return fmt.Errorf("append student status: %w", err)
	}
	return nil
}

func recordMail(ctx context.Context, e sqlx.ExecerContext, universityID string, mailID int64, result models.MailResult) error {
	const query = `UPDATE students_data SET mail_id = $1, mail_result = $2 WHERE university_id = $3`
	if _, err := e.ExecContext(ctx, query, mailID, result, universityID); err != nil {
		return fmt.Errorf("record mail result: %w", err)
	}
	return nil
}
