package entity

// DocumentType tags the two document kinds routed through the approval workflow
type DocumentType string

const (
	DocumentTypeEmploymentContract DocumentType = "EMPLOYMENT_CONTRACT"
	DocumentTypeLeaveApplication   DocumentType = "LEAVE_APPLICATION"
)

var validDocumentTypes = map[DocumentType]bool{
	DocumentTypeEmploymentContract: true,
	DocumentTypeLeaveApplication:   true,
}

// IsValid returns true if the document type is known
func (d DocumentType) IsValid() bool {
	return validDocumentTypes[d]
}

// String returns the string representation of the document type
func (d DocumentType) String() string {
	return string(d)
}

// LegacyStage names a pending stage of the fixed (legacy) routing path
type LegacyStage string

const (
	StageSubstitute        LegacyStage = "SUBSTITUTE_APPROVAL"
	StageDepartmentHead    LegacyStage = "DEPARTMENT_HEAD_APPROVAL"
	StageHRStaff           LegacyStage = "HR_STAFF_APPROVAL"
	StageCenterDirector    LegacyStage = "CENTER_DIRECTOR_APPROVAL"
	StageHRFinal           LegacyStage = "HR_FINAL_APPROVAL"
	StageAdminDirector     LegacyStage = "ADMIN_DIRECTOR_APPROVAL"
	StageCEODirector       LegacyStage = "CEO_DIRECTOR_APPROVAL"
	StageEmployeeSignature LegacyStage = "EMPLOYEE_SIGNATURE"
)

// String returns the string representation of the stage
func (s LegacyStage) String() string {
	return string(s)
}

// ApproverType is the role tag an approval step or legacy stage resolves through
type ApproverType string

const (
	ApproverTypeSubstitute     ApproverType = "SUBSTITUTE"
	ApproverTypeDepartmentHead ApproverType = "DEPARTMENT_HEAD"
	ApproverTypeHRStaff        ApproverType = "HR_STAFF"
	ApproverTypeCenterDirector ApproverType = "CENTER_DIRECTOR"
	ApproverTypeAdminDirector  ApproverType = "ADMIN_DIRECTOR"
	ApproverTypeCEODirector    ApproverType = "CEO_DIRECTOR"
	ApproverTypeEmployee       ApproverType = "EMPLOYEE"
	ApproverTypeSpecificUser   ApproverType = "SPECIFIC_USER"
	ApproverTypeJobLevel       ApproverType = "JOB_LEVEL"
)

var validApproverTypes = map[ApproverType]bool{
	ApproverTypeSubstitute:     true,
	ApproverTypeDepartmentHead: true,
	ApproverTypeHRStaff:        true,
	ApproverTypeCenterDirector: true,
	ApproverTypeAdminDirector:  true,
	ApproverTypeCEODirector:    true,
	ApproverTypeEmployee:       true,
	ApproverTypeSpecificUser:   true,
	ApproverTypeJobLevel:       true,
}

// IsValid returns true if the approver type is known
func (a ApproverType) IsValid() bool {
	return validApproverTypes[a]
}

// String returns the string representation of the approver type
func (a ApproverType) String() string {
	return string(a)
}

// ApproverRef references an approver role plus optional narrowing constraints.
// How a ref resolves to a concrete user is the approver directory's concern.
type ApproverRef struct {
	Type       ApproverType
	ApproverID string // SPECIFIC_USER
	JobLevel   string // JOB_LEVEL
	DeptCode   string // optional narrowing for role/level lookups
}

// Role is an organizational role carried by a user record
type Role string

const (
	RoleEmployee       Role = "EMPLOYEE"
	RoleDepartmentHead Role = "DEPARTMENT_HEAD"
	RoleHRStaff        Role = "HR_STAFF"
	RoleCenterDirector Role = "CENTER_DIRECTOR"
	RoleAdminDirector  Role = "ADMIN_DIRECTOR"
	RoleCEODirector    Role = "CEO_DIRECTOR"
)

// JobLevelEntry is the lowest seniority level; entry-level applicants must
// designate a substitute before submitting a leave application.
const JobLevelEntry = "0"
