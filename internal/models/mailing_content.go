package models

// MailingContent is a reusable notification template. At most one is the default.
type MailingContent struct {
	MailID    int64  `db:"mail_id" json:"mailId"`
	Subject   string `db:"subject" json:"subject"`
	Body      string `db:"body" json:"body"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
	CreatedBy string `db:"created_by" json:"createdBy"`
}

// MailingContentRequest is used for both create and update.
type MailingContentRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}
