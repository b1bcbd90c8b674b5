package entity

import "time"

// Slot is a named signature position on a document
type Slot string

const (
	// Shared / leave application slots
	SlotApplicant      Slot = "applicant"
	SlotSubstitute     Slot = "substitute"
	SlotDepartmentHead Slot = "departmentHead"
	SlotHRStaff        Slot = "hrStaff"
	SlotCenterDirector Slot = "centerDirector"
	SlotHRFinal        Slot = "hrFinal"
	SlotAdminDirector  Slot = "adminDirector"
	SlotCEODirector    Slot = "ceoDirector"

	// Employment contract slots: one per contract page plus the two consent
	// checkpoints and the drafting admin's counter-sign.
	SlotContractPage1     Slot = "contractPage1"
	SlotContractPage2     Slot = "contractPage2"
	SlotContractPage3     Slot = "contractPage3"
	SlotContractPage4     Slot = "contractPage4"
	SlotContractPage5     Slot = "contractPage5"
	SlotContractPage6     Slot = "contractPage6"
	SlotConsentTerms      Slot = "consentTerms"
	SlotConsentPrivacy    Slot = "consentPrivacy"
	SlotAdminCounterSign  Slot = "adminCounterSign"
)

// String returns the string representation of the slot
func (s Slot) String() string {
	return string(s)
}

// SlotForApproverType maps an approval-line approver role to the signature
// slot that role fills. Returns false for refs that have no fixed slot.
func SlotForApproverType(t ApproverType) (Slot, bool) {
	switch t {
	case ApproverTypeSubstitute:
		return SlotSubstitute, true
	case ApproverTypeDepartmentHead:
		return SlotDepartmentHead, true
	case ApproverTypeHRStaff:
		return SlotHRStaff, true
	case ApproverTypeCenterDirector:
		return SlotCenterDirector, true
	case ApproverTypeAdminDirector:
		return SlotAdminDirector, true
	case ApproverTypeCEODirector:
		return SlotCEODirector, true
	default:
		return "", false
	}
}

// Signature is one slot's record on a document. Slots are created empty at
// document creation and only reset, never deleted.
type Signature struct {
	Slot                         Slot       `json:"slot"`
	IsSigned                     bool       `json:"is_signed"`
	ImageRef                     string     `json:"image_ref,omitempty"`
	SignedAt                     *time.Time `json:"signed_at,omitempty"`
	SignedBy                     string     `json:"signed_by,omitempty"`
	AutoSatisfiedByFinalApproval bool       `json:"auto_satisfied_by_final_approval"`
}

// Reset clears the signature content while keeping the slot. The previous
// SignedAt is retained by the caller when it needs to enforce monotonicity.
func (s *Signature) Reset() {
	s.IsSigned = false
	s.ImageRef = ""
	s.SignedAt = nil
	s.SignedBy = ""
	s.AutoSatisfiedByFinalApproval = false
}
