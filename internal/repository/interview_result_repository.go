package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const resultColumns = `result_id, university_id, department_id, interview_status, timestamp, reviewed_by`

// InterviewResultRepository persists final interview decisions.
type InterviewResultRepository struct {
	db *sqlx.DB
}

// NewInterviewResultRepository constructs the repository.
func NewInterviewResultRepository(db *sqlx.DB) *InterviewResultRepository {
	return &InterviewResultRepository{db: db}
}

// List returns every decision.
func (r *InterviewResultRepository) List(ctx context.Context) ([]models.InterviewResult, error) {
	query := `SELECT ` + resultColumns + ` FROM interview_results ORDER BY timestamp DESC`
	var items []models.InterviewResult
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list interview results: %w", err)
	}
	return items, nil
}

// FindByStudent returns the decision for a student.
func (r *InterviewResultRepository) FindByStudent(ctx context.Context, universityID string) (*models.InterviewResult, error) {
	query := `SELECT ` + resultColumns + ` FROM interview_results WHERE university_id = $1`
	var item models.InterviewResult
	if err := r.db.GetContext(ctx, &item, query, universityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find interview result: %w", err)
	}
	return &item, nil
}

// Create inserts a decision. ErrAlreadyExists is returned when the student has one.
func (r *InterviewResultRepository) Create(ctx context.Context, item *models.InterviewResult) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO interview_results (university_id, department_id, interview_status, timestamp, reviewed_by)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (university_id) DO NOTHING
RETURNING result_id`
	if err := r.db.GetContext(ctx, &item.ResultID, query, item.UniversityID, item.DepartmentID, item.InterviewStatus, item.Timestamp, item.ReviewedBy); err != nil {
		if err == sql.ErrNoRows {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create interview result: %w", err)
	}
	return nil
}

// UpdateOutcome changes the decision of a student.
func (r *InterviewResultRepository) UpdateOutcome(ctx context.Context, universityID string, outcome models.Outcome, ts time.Time) error {
	const query = `UPDATE interview_results SET interview_status = $1, timestamp = $2 WHERE university_id = $3`
	res, err := r.db.ExecContext(ctx, query, outcome, ts, universityID)
	if err != nil {
		return fmt.Errorf("update interview result: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the decision of a student.
func (r *InterviewResultRepository) Delete(ctx context.Context, universityID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interview_results WHERE university_id = $1`, universityID)
	if err != nil {
		return fmt.Errorf("delete interview result: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPresentWithoutResult returns students marked present at the given
// department who are still waiting for a decision.
func (r *InterviewResultRepository) ListPresentWithoutResult(ctx context.Context, departmentID int) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + `
FROM students st
WHERE EXISTS (
	SELECT 1 FROM interview_histories h
	WHERE h.university_id = st.university_id
		AND h.department_id = $1
		AND h.interview_status = $2
)
AND NOT EXISTS (SELECT 1 FROM interview_results r WHERE r.university_id = st.university_id)
ORDER BY st.full_name ASC`
	var items []models.Student
	if err := r.db.SelectContext(ctx, &items, query, departmentID, models.AttendancePresent); err != nil {
		return nil, fmt.Errorf("list present students: %w", err)
	}
	return items, nil
}

// CollegeSummary counts decisions per college, optionally restricted to a day range.
func (r *InterviewResultRepository) CollegeSummary(ctx context.Context, rng models.SummaryRange) ([]models.CollegeSummary, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT
	COALESCE(st.college, '') AS college,
	COUNT(*) FILTER (WHERE r.interview_status = 'Accepted') AS accepted,
	COUNT(*) FILTER (WHERE r.interview_status = 'Rejected') AS rejected,
	COUNT(*) FILTER (WHERE r.interview_status = 'Pending') AS pending
FROM interview_results r
JOIN students st ON st.university_id = r.university_id
WHERE 1=1`)

	args := []interface{}{}
	switch {
	case rng.From != nil && rng.To != nil:
		args = append(args, rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02"))
		query.WriteString(" AND r.timestamp::date BETWEEN $1::date AND $2::date")
	case rng.From != nil:
		args = append(args, rng.From.Format("2006-01-02"))
		query.WriteString(" AND r.timestamp::date = $1::date")
	}
	query.WriteString("\nGROUP BY st.college\nORDER BY college ASC")

	var items []models.CollegeSummary
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("summarise interview results: %w", err)
	}
	return items, nil
}
