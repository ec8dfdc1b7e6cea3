package models

import "time"

// InterviewSchedule is a single bookable interview day.
type InterviewSchedule struct {
	ScheduleID    int64     `db:"schedule_id" json:"scheduleId"`
	InterviewDate time.Time `db:"interview_date" json:"interviewDate"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Location      string    `db:"location" json:"location"`
	CreatedBy     string    `db:"created_by" json:"createdBy"`
	MailID        int64     `db:"mail_id" json:"mailId"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ScheduleDetail enriches a schedule with booking and template context for listings.
type ScheduleDetail struct {
	InterviewSchedule
	BookedCount int     `db:"booked_count" json:"bookedCount"`
	AgentName   *string `db:"agent_name" json:"agentName,omitempty"`
	MailSubject *string `db:"mail_subject" json:"mailSubject,omitempty"`
}

// Remaining returns the number of free seats left on the day.
func (d ScheduleDetail) Remaining() int {
	if d.BookedCount >= d.Capacity {
		return 0
	}
	return d.Capacity - d.BookedCount
}

// CreateScheduleRequest is the payload for opening a new interview day.
type CreateScheduleRequest struct {
	InterviewDate time.Time `json:"interviewDate" validate:"required"`
	Capacity      *int      `json:"capacity,omitempty"`
	Location      string    `json:"location"`
	CreatedBy     string    `json:"-"`
}

// UpdateScheduleRequest is the payload for editing an interview day.
type UpdateScheduleRequest struct {
	InterviewDate time.Time `json:"interviewDate" validate:"required"`
	Capacity      *int      `json:"capacity,omitempty"`
	Location      string    `json:"location"`
}
