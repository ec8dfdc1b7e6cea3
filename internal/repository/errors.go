package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Sentinel errors returned by repositories when a write is refused by the data rules.
var (
	ErrCapacityFull     = errors.New("schedule capacity reached")
	ErrAlreadyBooked    = errors.New("student already booked")
	ErrAlreadySubmitted = errors.New("student data already submitted")
	ErrAlreadyExists    = errors.New("record already exists")
	ErrInUse            = errors.New("record is still referenced")
	ErrNotEligible      = errors.New("student is not eligible to book")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	return hasPQCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasPQCode(err, foreignKeyViolation)
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// lockStudent serialises writers touching the same student until tx ends.
func lockStudent(ctx context.Context, tx *sqlx.Tx, universityID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, universityID); err != nil {
		return fmt.Errorf("lock student %s: %w", universityID, err)
	}
	return nil
}

// lockDefaultTemplate serialises changes to the default mailing content so
// only one row can carry the flag.
func lockDefaultTemplate(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('mailing_contents:default'))`); err != nil {
		return fmt.Errorf("lock default mailing content: %w", err)
	}
	return nil
}
