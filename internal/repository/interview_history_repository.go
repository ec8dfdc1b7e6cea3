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

// InterviewHistoryRepository persists per-department attendance.
type InterviewHistoryRepository struct {
	db *sqlx.DB
}

// NewInterviewHistoryRepository constructs the repository.
func NewInterviewHistoryRepository(db *sqlx.DB) *InterviewHistoryRepository {
	return &InterviewHistoryRepository{db: db}
}

const historyViewQuery = `
SELECT
	h.history_id,
	h.university_id,
	h.department_id,
	h.interview_status,
	h.timestamp,
	h.reviewed_by,
	d.name AS department_name,
	u.full_name AS agent_name
FROM interview_histories h
JOIN departments d ON d.department_id = h.department_id
LEFT JOIN users u ON u.id = h.reviewed_by`

// List returns all attendance records, newest first.
func (r *InterviewHistoryRepository) List(ctx context.Context) ([]models.InterviewHistoryView, error) {
	query := historyViewQuery + "\nORDER BY h.timestamp DESC"
	var items []models.InterviewHistoryView
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list interview histories: %w", err)
	}
	return items, nil
}

// ListByStudent returns a student's attendance ordered by department.
func (r *InterviewHistoryRepository) ListByStudent(ctx context.Context, universityID string) ([]models.InterviewHistoryView, error) {
	query := historyViewQuery + "\nWHERE h.university_id = $1\nORDER BY h.department_id ASC"
	var items []models.InterviewHistoryView
	if err := r.db.SelectContext(ctx, &items, query, universityID); err != nil {
		return nil, fmt.Errorf("list student interview history: %w", err)
	}
	return items, nil
}

// Upsert records attendance keyed by student and department. The original
// reviewer is kept when the mark is changed.
func (r *InterviewHistoryRepository) Upsert(ctx context.Context, record *models.InterviewHistory) (*models.InterviewHistory, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO interview_histories (university_id, department_id, interview_status, timestamp, reviewed_by)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (university_id, department_id)
DO UPDATE SET interview_status = EXCLUDED.interview_status, timestamp = EXCLUDED.timestamp
RETURNING history_id, university_id, department_id, interview_status, timestamp, reviewed_by`
	var stored models.InterviewHistory
	if err := r.db.GetContext(ctx, &stored, query, record.UniversityID, record.DepartmentID, record.InterviewStatus, record.Timestamp, record.ReviewedBy); err != nil {
		return nil, fmt.Errorf("upsert interview history: %w", err)
	}
	return &stored, nil
}

// DepartmentName returns the display name of a department.
func (r *InterviewHistoryRepository) DepartmentName(ctx context.Context, departmentID int) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM departments WHERE department_id = $1`, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("find department: %w", err)
	}
	return name, nil
}
