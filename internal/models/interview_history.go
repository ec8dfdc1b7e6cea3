package models

import (
	"fmt"
	"strings"
	"time"
)

// Attendance marks whether a student showed up in front of a department.
type Attendance string

const (
	AttendancePresent Attendance = "Present"
	AttendanceAbsent  Attendance = "Absent"
)

// ParseAttendance validates a raw attendance value.
func ParseAttendance(raw string) (Attendance, error) {
	switch {
	case strings.EqualFold(raw, string(AttendancePresent)):
		return AttendancePresent, nil
	case strings.EqualFold(raw, string(AttendanceAbsent)):
		return AttendanceAbsent, nil
	}
	return "", fmt.Errorf("unknown attendance %q", raw)
}

// InterviewHistory is the per-department attendance record of a student.
type InterviewHistory struct {
	HistoryID       int64      `db:"history_id" json:"historyId"`
	UniversityID    string     `db:"university_id" json:"universityId"`
	DepartmentID    int        `db:"department_id" json:"departmentId"`
	InterviewStatus Attendance `db:"interview_status" json:"interviewStatus"`
	Timestamp       time.Time  `db:"timestamp" json:"timestamp"`
	ReviewedBy      string     `db:"reviewed_by" json:"reviewedBy"`
}

// InterviewHistoryView adds department and agent names for display.
type InterviewHistoryView struct {
	InterviewHistory
	Department string  `db:"department_name" json:"department"`
	Agent      *string `db:"agent_name" json:"agent,omitempty"`
}

// MarkAttendanceRequest is sent by an agent at their department desk.
type MarkAttendanceRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	Status       string `json:"status" validate:"required"`
}
