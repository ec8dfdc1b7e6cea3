package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const studentColumns = `st.university_id, st.national_id, st.full_name, COALESCE(st.email, '') AS email, COALESCE(st.phone, '') AS phone, COALESCE(st.college, '') AS college, COALESCE(st.is_paid, '') AS is_paid`

// StudentRepository reads imported student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by university id.
func (r *StudentRepository) FindByID(ctx context.Context, universityID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students st WHERE st.university_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, universityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}
