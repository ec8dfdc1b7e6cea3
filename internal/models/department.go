package models

// Department identifies an interview desk. The personal interview desk decides
// who is considered present for results.
const (
	DepartmentPersonalInterview = 1
	DepartmentMedical           = 2
	DepartmentEnglish           = 3
)

// Department is a screening station staffed by agents.
type Department struct {
	DepartmentID int    `db:"department_id" json:"departmentId"`
	Name         string `db:"name" json:"name"`
}
