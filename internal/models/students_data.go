package models

import "time"

// MailResult records the outcome of the last notification attempt for a student.
type MailResult string

const (
	MailResultSent   MailResult = "Sent"
	MailResultFailed MailResult = "Failed"
)

// StudentsData holds what the student submitted about themselves.
type StudentsData struct {
	UniversityID   string      `db:"university_id" json:"universityId"`
	ReferralSource string      `db:"referral_source" json:"referralSource"`
	Activities     *string     `db:"activities" json:"activities,omitempty"`
	Awards         *string     `db:"awards" json:"awards,omitempty"`
	ImageAttach    string      `db:"image_attach" json:"imageAttach"`
	SubmittedAt    time.Time   `db:"submitted_at" json:"submittedAt"`
	MailID         *int64      `db:"mail_id" json:"mailId,omitempty"`
	MailResult     *MailResult `db:"mail_result" json:"mailResult,omitempty"`
}

// StudentsDataView is the submission merged with the student's current ledger state.
type StudentsDataView struct {
	StudentsData
	Status      Status `json:"status"`
	IsLocked    bool   `json:"isLocked"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// SubmitStudentsDataRequest is the multipart form a student fills in.
type SubmitStudentsDataRequest struct {
	UniversityID   string  `form:"universityId" validate:"required"`
	ReferralSource string  `form:"referralSource" validate:"required"`
	Activities     *string `form:"activities"`
	Awards         *string `form:"awards"`
}

// Attachment describes an uploaded file before it is persisted.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}
