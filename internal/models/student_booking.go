package models

import "time"

// StudentBooking reserves one seat on a schedule for a student. A student holds at most one.
type StudentBooking struct {
	BookingID    int64     `db:"booking_id" json:"bookingId"`
	UniversityID string    `db:"university_id" json:"universityId"`
	ScheduleID   int64     `db:"schedule_id" json:"scheduleId"`
	BookedAt     time.Time `db:"booked_at" json:"bookedAt"`
}

// BookingView joins a booking with its interview day.
type BookingView struct {
	BookingID    int64     `db:"booking_id" json:"bookingId"`
	UniversityID string    `db:"university_id" json:"universityId"`
	ScheduleID   int64     `db:"schedule_id" json:"scheduleId"`
	ScheduleDate time.Time `db:"interview_date" json:"scheduleDate"`
	Location     string    `db:"location" json:"location"`
	BookedAt     time.Time `db:"booked_at" json:"bookedAt"`
}

// CollegeBooking is a booking listed together with the student it belongs to.
type CollegeBooking struct {
	BookingView
	FullName string `db:"full_name" json:"fullName"`
	College  string `db:"college" json:"college"`
	Phone    string `db:"phone" json:"phone"`
}

// BookingSlip carries what is printed on a student's interview slip.
type BookingSlip struct {
	BookingID     int64     `db:"booking_id" json:"bookingId"`
	UniversityID  string    `db:"university_id" json:"universityId"`
	Name          string    `db:"full_name" json:"name"`
	Phone         string    `db:"phone" json:"phone"`
	NationalID    string    `db:"national_id" json:"nationalId"`
	Location      string    `db:"location" json:"location"`
	InterviewDate time.Time `db:"interview_date" json:"interviewDate"`
}

// BookRequest is the payload a student sends to reserve a day.
type BookRequest struct {
	UniversityID string `json:"universityId" validate:"required"`
	ScheduleID   int64  `json:"scheduleId" validate:"required,gt=0"`
}
