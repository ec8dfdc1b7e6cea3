package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

// BookingRepository persists student bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book admits the student onto the schedule and appends a Reserved ledger row.
// The schedule row is locked for the whole check-and-insert, and so is the
// student, so neither capacity nor the one-booking rule can be raced. With
// requireFulfilled the student's latest status must be Fulfilled.
//
// Errors: sql.ErrNoRows when the schedule is missing, ErrCapacityFull,
// ErrAlreadyBooked, ErrNotEligible.
func (r *BookingRepository) Book(ctx context.Context, universityID string, scheduleID int64, requireFulfilled bool) (booking *models.StudentBooking, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	schedule, err := lockSchedule(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}

	if err = lockStudent(ctx, tx, universityID); err != nil {
		return nil, err
	}

	booked, err := countBookings(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	if booked >= schedule.Capacity {
		err = ErrCapacityFull
		return nil, err
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM student_bookings WHERE university_id = $1)`, universityID); err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if exists {
		err = ErrAlreadyBooked
		return nil, err
	}

	if requireFulfilled {
		latest, lerr := latestStatus(ctx, tx, universityID, false)
		if lerr != nil && !errors.Is(lerr, sql.ErrNoRows) {
			err = lerr
			return nil, err
		}
		if latest == nil || latest.Status != models.StatusFulfilled {
			err = ErrNotEligible
			return nil, err
		}
	}

	now := time.Now().UTC()
	booking = &models.StudentBooking{UniversityID: universityID, ScheduleID: scheduleID, BookedAt: now}
	const insertQuery = `INSERT INTO student_bookings (university_id, schedule_id, booked_at) VALUES ($1, $2, $3) RETURNING booking_id`
	if err = tx.GetContext(ctx, &booking.BookingID, insertQuery, universityID, scheduleID, now); err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadyBooked
			return nil, err
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	reserved := &models.StudentStatus{
		UniversityID: universityID,
		Status:       models.StatusReserved,
		CreatedAt:    now,
		IsLocked:     true,
	}
	if err = appendStatus(ctx, tx, reserved); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return booking, nil
}

const bookingViewQuery = `
SELECT
	b.booking_id,
	b.university_id,
	b.schedule_id,
	s.interview_date,
	s.location,
	b.booked_at
FROM student_bookings b
JOIN interview_schedules s ON s.schedule_id = b.schedule_id`

// List returns all bookings with their interview day.
func (r *BookingRepository) List(ctx context.Context) ([]models.BookingView, error) {
	query := bookingViewQuery + "\nORDER BY s.interview_date ASC, b.booked_at ASC"
	var items []models.BookingView
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

// FindByStudent returns the student's booking.
func (r *BookingRepository) FindByStudent(ctx context.Context, universityID string) (*models.BookingView, error) {
	query := bookingViewQuery + "\nWHERE b.university_id = $1"
	var item models.BookingView
	if err := r.db.GetContext(ctx, &item, query, universityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking by student: %w", err)
	}
	return &item, nil
}

// ListByDate returns the bookings whose interview falls on the given calendar day.
func (r *BookingRepository) ListByDate(ctx context.Context, day time.Time) ([]models.BookingView, error) {
	query := bookingViewQuery + "\nWHERE s.interview_date::date = $1::date\nORDER BY b.booked_at ASC"
	var items []models.BookingView
	if err := r.db.SelectContext(ctx, &items, query, day.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list bookings by date: %w", err)
	}
	return items, nil
}

// ListByCollege returns bookings of students from the given college, matched case-insensitively.
func (r *BookingRepository) ListByCollege(ctx context.Context, college string) ([]models.CollegeBooking, error) {
	const query = `
SELECT
	b.booking_id,
	b.university_id,
	b.schedule_id,
	s.interview_date,
	s.location,
	b.booked_at,
	st.full_name,
	st.college,
	COALESCE(st.phone, '') AS phone
FROM student_bookings b
JOIN interview_schedules s ON s.schedule_id = b.schedule_id
JOIN students st ON st.university_id = b.university_id
WHERE LOWER(TRIM(st.college)) = $1
ORDER BY s.interview_date ASC, st.full_name ASC`
	var items []models.CollegeBooking
	if err := r.db.SelectContext(ctx, &items, query, strings.ToLower(strings.TrimSpace(college))); err != nil {
		return nil, fmt.Errorf("list bookings by college: %w", err)
	}
	return items, nil
}

// Slip returns what is printed on the student's booking slip.
func (r *BookingRepository) Slip(ctx context.Context, universityID string) (*models.BookingSlip, error) {
	const query = `
SELECT
	b.booking_id,
	st.university_id,
	st.full_name,
	COALESCE(st.phone, '') AS phone,
	st.national_id,
	s.location,
	s.interview_date
FROM student_bookings b
JOIN students st ON st.university_id = b.university_id
JOIN interview_schedules s ON s.schedule_id = b.schedule_id
WHERE b.university_id = $1`
	var slip models.BookingSlip
	if err := r.db.GetContext(ctx, &slip, query, universityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load booking slip: %w", err)
	}
	return &slip, nil
}
