package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is a step in a student's screening workflow.
type Status string

const (
	StatusNew       Status = "New"
	StatusPending   Status = "Pending"
	StatusFulfilled Status = "Fulfilled"
	StatusRejected  Status = "Rejected"
	StatusReserved  Status = "Reserved"
)

var knownStatuses = []Status{StatusNew, StatusPending, StatusFulfilled, StatusRejected, StatusReserved}

// ParseStatus converts a raw value into a Status, matching case-insensitively.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, st := range knownStatuses {
		if strings.EqualFold(string(st), trimmed) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// IsOpen reports whether staff may still move a student out of this status.
func (s Status) IsOpen() bool {
	return s == StatusNew || s == StatusPending
}

// StudentStatus is one row of the append-only status ledger.
type StudentStatus struct {
	StatusID     int64     `db:"status_id" json:"statusId"`
	UniversityID string    `db:"university_id" json:"universityId"`
	Status       Status    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	ReviewedBy   *string   `db:"reviewed_by" json:"reviewedBy,omitempty"`
	IsLocked     bool      `db:"is_locked" json:"isLocked"`
}

// StatusAmendment carries the only fields that may change on an existing ledger row.
type StatusAmendment struct {
	IsLocked   bool
	ReviewedBy *string
}

// StatusUpdateRequest is the staff payload for moving a student to a new status.
type StatusUpdateRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	NewStatus    string `json:"newStatus" validate:"required"`
}

// StatusUpdateResult is returned after a successful transition.
type StatusUpdateResult struct {
	Message    string         `json:"message"`
	ReviewedBy string         `json:"reviewedBy"`
	Status     *StudentStatus `json:"status,omitempty"`
	MailResult *MailResult    `json:"mailResult,omitempty"`
}

// ResendEmailRequest asks for the notification to be delivered again.
type ResendEmailRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	MailID       *int64 `json:"mailId,omitempty"`
}
