package entity

// DocumentContext carries the document-derived facts the approver directory
// needs to resolve a role to a concrete user.
type DocumentContext struct {
	Applicant    *User
	SubstituteID string
	EmployeeID   string
}
