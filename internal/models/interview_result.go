package models

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the final decision for an interviewed student.
type Outcome string

const (
	OutcomeAccepted Outcome = "Accepted"
	OutcomeRejected Outcome = "Rejected"
	OutcomePending  Outcome = "Pending"
)

// ParseOutcome validates a raw outcome value.
func ParseOutcome(raw string) (Outcome, error) {
	for _, o := range []Outcome{OutcomeAccepted, OutcomeRejected, OutcomePending} {
		if strings.EqualFold(raw, string(o)) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown interview outcome %q", raw)
}

// InterviewResult is the single decision stored per student.
type InterviewResult struct {
	ResultID        int64     `db:"result_id" json:"resultId"`
	UniversityID    string    `db:"university_id" json:"universityId"`
	DepartmentID    int       `db:"department_id" json:"departmentId"`
	InterviewStatus Outcome   `db:"interview_status" json:"interviewStatus"`
	Timestamp       time.Time `db:"timestamp" json:"timestamp"`
	ReviewedBy      string    `db:"reviewed_by" json:"reviewedBy"`
}

// InterviewResultRequest is used to create or change a decision.
type InterviewResultRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	Result       string `json:"result" validate:"required"`
}

// CollegeSummary counts decisions per college.
type CollegeSummary struct {
	College  string `db:"college" json:"college"`
	Accepted int    `db:"accepted" json:"accepted"`
	Rejected int    `db:"rejected" json:"rejected"`
	Pending  int    `db:"pending" json:"pending"`
}

// SummaryRange narrows the college summary to decisions taken on the given days.
// With only From set, a single day is matched.
type SummaryRange struct {
	From *time.Time
	To   *time.Time
}
