package entity

import "time"

// ApprovalStep is one ordered entry of an approval line. Steps are value
// objects owned exclusively by their line.
type ApprovalStep struct {
	StepOrder                int
	StepName                 string
	ApproverType             ApproverType
	ApproverID               string // SPECIFIC_USER constraint
	JobLevel                 string // JOB_LEVEL constraint
	DeptCode                 string // optional narrowing
	IsOptional               bool
	CanSkip                  bool
	IsFinalApprovalAvailable bool
}

// Ref returns the approver reference this step resolves through
func (s ApprovalStep) Ref() ApproverRef {
	return ApproverRef{
		Type:       s.ApproverType,
		ApproverID: s.ApproverID,
		JobLevel:   s.JobLevel,
		DeptCode:   s.DeptCode,
	}
}

// ApprovalLine is a named, reusable ordered step template for one document
// type. Lines are shared read-only across documents; a document never mutates
// the line it references.
type ApprovalLine struct {
	ID           int64
	Name         string
	DocumentType DocumentType
	IsActive     bool
	Steps        []ApprovalStep
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StepAt returns the step with the given order (1-based), or nil
func (l *ApprovalLine) StepAt(order int) *ApprovalStep {
	for i := range l.Steps {
		if l.Steps[i].StepOrder == order {
			return &l.Steps[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a line: non-empty name, known
// document type, and steps ordered 1..N with no gaps or duplicates.
func (l *ApprovalLine) Validate() error {
	if l.Name == "" {
		return errLineName
	}
	if !l.DocumentType.IsValid() {
		return errLineDocumentType
	}
	if len(l.Steps) == 0 {
		return errLineNoSteps
	}
	seen := make(map[int]bool, len(l.Steps))
	for _, step := range l.Steps {
		if !step.ApproverType.IsValid() {
			return errLineApproverType
		}
		if step.ApproverType == ApproverTypeSpecificUser && step.ApproverID == "" {
			return errLineApproverID
		}
		if step.ApproverType == ApproverTypeJobLevel && step.JobLevel == "" {
			return errLineJobLevel
		}
		if seen[step.StepOrder] {
			return errLineDuplicateOrder
		}
		seen[step.StepOrder] = true
	}
	for order := 1; order <= len(l.Steps); order++ {
		if !seen[order] {
			return errLineOrderGap
		}
	}
	return nil
}
