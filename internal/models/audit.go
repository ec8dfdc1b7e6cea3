package models

import "time"

// AuditLog is one entry of the activity trail.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"userId,omitempty"`
	UserEmail   *string   `db:"user_email" json:"userEmail,omitempty"`
	TableName   string    `db:"table_name" json:"tableName"`
	Description string    `db:"description" json:"description"`
	IPAddress   string    `db:"ip_address" json:"ipAddress"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Actor identifies who performed an audited operation.
type Actor struct {
	UserID       string
	Email        string
	Role         UserRole
	IP           string
	DepartmentID *int
}
