package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const studentsDataColumns = `university_id, referral_source, activities, awards, image_attach, submitted_at, mail_id, mail_result`

// StudentsDataRepository persists the data students submit about themselves.
type StudentsDataRepository struct {
	db *sqlx.DB
}

// NewStudentsDataRepository constructs the repository.
func NewStudentsDataRepository(db *sqlx.DB) *StudentsDataRepository {
	return &StudentsDataRepository{db: db}
}

// FindByID returns the submission of a student.
func (r *StudentsDataRepository) FindByID(ctx context.Context, universityID string) (*models.StudentsData, error) {
	query := `SELECT ` + studentsDataColumns + ` FROM students_data WHERE university_id = $1`
	var data models.StudentsData
	if err := r.db.GetContext(ctx, &data, query, universityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find students data: %w", err)
	}
	return &data, nil
}

// Submit stores the first submission and opens the ledger with status New.
// ErrAlreadySubmitted is returned when the student submitted before.
func (r *StudentsDataRepository) Submit(ctx context.Context, data *models.StudentsData) (status *models.StudentStatus, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin students data submit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockStudent(ctx, tx, data.UniversityID); err != nil {
		return nil, err
	}

	const insertQuery = `INSERT INTO students_data (university_id, referral_source, activities, awards, image_attach, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertQuery, data.UniversityID, data.ReferralSource, data.Activities, data.Awards, data.ImageAttach, data.SubmittedAt); err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadySubmitted
			return nil, err
		}
		return nil, fmt.Errorf("insert students data: %w", err)
	}

	status = &models.StudentStatus{
		UniversityID: data.UniversityID,
		Status:       models.StatusNew,
		CreatedAt:    data.SubmittedAt,
	}
	if err = appendStatus(ctx, tx, status); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit students data submit: %w", err)
	}
	return status, nil
}

// Update overwrites the editable fields of a submission.
func (r *StudentsDataRepository) Update(ctx context.Context, data *models.StudentsData) error {
	const query = `UPDATE students_data
SET referral_source = $1, activities = $2, awards = $3, image_attach = $4, submitted_at = $5
WHERE university_id = $6`
	res, err := r.db.ExecContext(ctx, query, data.ReferralSource, data.Activities, data.Awards, data.ImageAttach, data.SubmittedAt, data.UniversityID)
	if err != nil {
		return fmt.Errorf("update students data: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordMail stores the outcome of a notification sent outside a status transition.
func (r *StudentsDataRepository) RecordMail(ctx context.Context, universityID string, mailID int64, result models.MailResult) error {
	return recordMail(ctx, r.db, universityID, mailID, result)
}
