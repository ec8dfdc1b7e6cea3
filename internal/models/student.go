package models

import "strings"

// Student is the externally imported applicant record. It is read-only here.
type Student struct {
	UniversityID string `db:"university_id" json:"universityId"`
	NationalID   string `db:"national_id" json:"nationalId"`
	FullName     string `db:"full_name" json:"fullName"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone"`
	College      string `db:"college" json:"college"`
	IsPaid       string `db:"is_paid" json:"isPaid"`
}

// HasPaid reports whether the fee flag allows the student to sign in.
// Anything other than an explicit "no" counts as paid.
func (s Student) HasPaid() bool {
	return strings.ToLower(strings.TrimSpace(s.IsPaid)) != "no"
}
