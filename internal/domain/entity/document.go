package entity

import (
	"encoding/json"
	"time"
)

// FinalApproval records that a delegated approver short-circuited the rest of
// the approval chain.
type FinalApproval struct {
	IsFinalApproved   bool       `json:"is_final_approved"`
	FinalApproverID   string     `json:"final_approver_id,omitempty"`
	FinalApprovalStep string     `json:"final_approval_step,omitempty"`
	FinalApprovalDate *time.Time `json:"final_approval_date,omitempty"`
}

// Document is the aggregate routed through the approval workflow. It owns its
// signature set and final-approval record; the approval line it may reference
// is shared and read-only.
type Document struct {
	ID                int64
	DocumentType      DocumentType
	Status            string
	ApplicantID       string
	ApprovalLineID    *int64
	CurrentStepOrder  *int
	CurrentApproverID *string
	LegacyStage       *LegacyStage
	FinalApproval     FinalApproval
	RejectionReason   *string
	CancelReason      *string
	Payload           json.RawMessage
	Signatures        map[Slot]*Signature
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Signature returns the record for a slot, creating an empty one on first use.
func (d *Document) Signature(slot Slot) *Signature {
	if d.Signatures == nil {
		d.Signatures = make(map[Slot]*Signature)
	}
	sig, ok := d.Signatures[slot]
	if !ok {
		sig = &Signature{Slot: slot}
		d.Signatures[slot] = sig
	}
	return sig
}

// SetCurrentApprover points the document at the next actor expected to act
func (d *Document) SetCurrentApprover(userID string) {
	d.CurrentApproverID = &userID
}

// ClearCurrentApprover removes the pending approver (terminal states, DRAFT)
func (d *Document) ClearCurrentApprover() {
	d.CurrentApproverID = nil
}

// IsCurrentApprover reports whether the actor is the one expected to act next
func (d *Document) IsCurrentApprover(actorID string) bool {
	return d.CurrentApproverID != nil && *d.CurrentApproverID == actorID
}

// LeaveApplicationPayload is the typed view of a leave application's form data.
// The engine treats Payload as opaque; only LeaveApplicationPolicy parses it.
type LeaveApplicationPayload struct {
	LeaveType    string  `json:"leave_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	TotalDays    float64 `json:"total_days"`
	Reason       string  `json:"reason,omitempty"`
	SubstituteID string  `json:"substitute_id,omitempty"`
}

// EmploymentContractPayload is the typed view of a contract's form data,
// parsed only by EmploymentContractPolicy.
type EmploymentContractPayload struct {
	EmployeeID    string `json:"employee_id"`
	ContractTitle string `json:"contract_title,omitempty"`
	SalaryKRW     int64  `json:"salary_krw,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

// ParseLeavePayload decodes the document payload as a leave application form
func (d *Document) ParseLeavePayload() (*LeaveApplicationPayload, error) {
	var p LeaveApplicationPayload
	if err := json.Unmarshal(d.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseContractPayload decodes the document payload as a contract form
func (d *Document) ParseContractPayload() (*EmploymentContractPayload, error) {
	var p EmploymentContractPayload
	if err := json.Unmarshal(d.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
