package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const scheduleColumns = `schedule_id, interview_date, capacity, location, created_by, mail_id, created_at`

// ScheduleUpdateFunc applies changes to a locked schedule given its current booked count.
type ScheduleUpdateFunc func(current *models.InterviewSchedule, bookedCount int) error

// ScheduleRepository persists interview days.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a schedule and fills its generated fields.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.InterviewSchedule) error {
	const query = `INSERT INTO interview_schedules (interview_date, capacity, location, created_by, mail_id, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING schedule_id, created_at`
	row := r.db.QueryRowxContext(ctx, query, schedule.InterviewDate, schedule.Capacity, schedule.Location, schedule.CreatedBy, schedule.MailID)
	if err := row.Scan(&schedule.ScheduleID, &schedule.CreatedAt); err != nil {
		return fmt.Errorf("create interview schedule: %w", err)
	}
	return nil
}

// FindByID returns a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.InterviewSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM interview_schedules WHERE schedule_id = $1`
	var schedule models.InterviewSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find interview schedule: %w", err)
	}
	return &schedule, nil
}

const scheduleDetailQuery = `
SELECT
	s.schedule_id,
	s.interview_date,
	s.capacity,
	s.location,
	s.created_by,
	s.mail_id,
	s.created_at,
	(SELECT COUNT(*) FROM student_bookings b WHERE b.schedule_id = s.schedule_id) AS booked_count,
	u.full_name AS agent_name,
	m.subject AS mail_subject
FROM interview_schedules s
LEFT JOIN users u ON u.id = s.created_by
LEFT JOIN mailing_contents m ON m.mail_id = s.mail_id`

// List returns all schedules with their booked counts, ordered by date.
func (r *ScheduleRepository) List(ctx context.Context) ([]models.ScheduleDetail, error) {
	query := scheduleDetailQuery + "\nORDER BY s.interview_date ASC, s.schedule_id ASC"
	var items []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list interview schedules: %w", err)
	}
	return items, nil
}

// GetDetail returns a single schedule with its booked count.
func (r *ScheduleRepository) GetDetail(ctx context.Context, id int64) (*models.ScheduleDetail, error) {
	query := scheduleDetailQuery + "\nWHERE s.schedule_id = $1"
	var item models.ScheduleDetail
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get interview schedule: %w", err)
	}
	return &item, nil
}

// CountBookings returns how many students booked the schedule.
func (r *ScheduleRepository) CountBookings(ctx context.Context, id int64) (int, error) {
	return countBookings(ctx, r.db, id)
}

// Update locks the schedule, hands it to fn together with the booked count and
// persists whatever fn left in it. Returns sql.ErrNoRows when missing.
func (r *ScheduleRepository) Update(ctx context.Context, id int64, fn ScheduleUpdateFunc) (result *models.InterviewSchedule, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin schedule update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	schedule, err := lockSchedule(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	booked, err := countBookings(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err = fn(schedule, booked); err != nil {
		return nil, err
	}

	const updateQuery = `UPDATE interview_schedules SET interview_date = $1, capacity = $2, location = $3 WHERE schedule_id = $4`
	if _, err = tx.ExecContext(ctx, updateQuery, schedule.InterviewDate, schedule.Capacity, schedule.Location, id); err != nil {
		return nil, fmt.Errorf("update interview schedule: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule update: %w", err)
	}
	return schedule, nil
}

// Delete removes the schedule and every booking referencing it.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockSchedule(ctx, tx, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM student_bookings WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule bookings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM interview_schedules WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete interview schedule: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule delete: %w", err)
	}
	return nil
}

func lockSchedule(ctx context.Context, tx *sqlx.Tx, id int64) (*models.InterviewSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM interview_schedules WHERE schedule_id = $1 FOR UPDATE`
	var schedule models.InterviewSchedule
	if err := tx.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock interview schedule: %w", err)
	}
	return &schedule, nil
}

func countBookings(ctx context.Context, q sqlx.QueryerContext, scheduleID int64) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(*) FROM student_bookings WHERE schedule_id = $1`, scheduleID); err != nil {
		return 0, fmt.Errorf("count schedule bookings: %w", err)
	}
	return count, nil
}
