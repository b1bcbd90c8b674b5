package policy

import (
	"context"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// contractEmployeeSlots are the slots the employee fills at the signature
// stage: one per contract page plus both consent checkpoints.
var contractEmployeeSlots = []entity.Slot{
	entity.SlotContractPage1,
	entity.SlotContractPage2,
	entity.SlotContractPage3,
	entity.SlotContractPage4,
	entity.SlotContractPage5,
	entity.SlotContractPage6,
	entity.SlotConsentTerms,
	entity.SlotConsentPrivacy,
}

// EmploymentContractPolicy routes contracts through the single employee
// signature stage. The drafting admin counter-signs during DRAFT, so after
// submission only the employee's stage is pending. No balance side effects
// and no delegated final approval apply to contracts.
type EmploymentContractPolicy struct{}

// NewEmploymentContractPolicy creates the employment contract policy
func NewEmploymentContractPolicy() *EmploymentContractPolicy {
	return &EmploymentContractPolicy{}
}

// DocumentType returns the type this policy is registered for
func (p *EmploymentContractPolicy) DocumentType() entity.DocumentType {
	return entity.DocumentTypeEmploymentContract
}

// LegacySequence is the single employee signature stage
func (p *EmploymentContractPolicy) LegacySequence(_ *entity.User, _ *entity.Document) ([]StageDef, error) {
	return []StageDef{
		{
			Stage:    entity.StageEmployeeSignature,
			State:    workflow.StateSentToEmployee,
			Slot:     entity.SlotContractPage1,
			Approver: entity.ApproverRef{Type: entity.ApproverTypeEmployee},
		},
	}, nil
}

// DraftSlots requires the drafting admin's counter-sign before submit
func (p *EmploymentContractPolicy) DraftSlots() []entity.Slot {
	return []entity.Slot{entity.SlotAdminCounterSign}
}

// StageSlots lists the slots the employee may write at the signature stage
func (p *EmploymentContractPolicy) StageSlots(stage entity.LegacyStage) []entity.Slot {
	if stage == entity.StageEmployeeSignature {
		return contractEmployeeSlots
	}
	return nil
}

// BuildContext extracts the contracted employee from the form data
func (p *EmploymentContractPolicy) BuildContext(applicant *entity.User, doc *entity.Document) (entity.DocumentContext, error) {
	payload, err := doc.ParseContractPayload()
	if err != nil {
		return entity.DocumentContext{}, workflow.Validationf("malformed contract payload: %v", err)
	}
	return entity.DocumentContext{Applicant: applicant, EmployeeID: payload.EmployeeID}, nil
}

// ValidateSubmit checks the contract-specific submit preconditions
func (p *EmploymentContractPolicy) ValidateSubmit(_ *entity.User, doc *entity.Document) error {
	payload, err := doc.ParseContractPayload()
	if err != nil {
		return workflow.Validationf("malformed contract payload: %v", err)
	}
	if payload.EmployeeID == "" {
		return workflow.Validationf("contract has no employee assigned")
	}
	return nil
}

// ValidateApprove requires every page signed and both consents agreed before
// the employee's approval completes the contract.
func (p *EmploymentContractPolicy) ValidateApprove(doc *entity.Document, stage entity.LegacyStage) error {
	if stage != entity.StageEmployeeSignature {
		return nil
	}
	for _, slot := range contractEmployeeSlots {
		sig := doc.Signatures[slot]
		if sig == nil || !sig.IsSigned {
			return workflow.Validationf("slot %s must be signed before the contract can be completed", slot)
		}
	}
	return nil
}

// ApprovedState returns COMPLETED
func (p *EmploymentContractPolicy) ApprovedState() workflow.State {
	return workflow.StateCompleted
}

// AllowsFinalApproval is never true for contracts
func (p *EmploymentContractPolicy) AllowsFinalApproval(_ entity.LegacyStage, _ *entity.User) bool {
	return false
}

// CanReturnToDraft allows the drafting author or HR staff to pull a sent
// contract back for editing.
func (p *EmploymentContractPolicy) CanReturnToDraft(actor *entity.User, doc *entity.Document) bool {
	return actor.ID == doc.ApplicantID || actor.Role == entity.RoleHRStaff
}

// CanCancelApproved restricts cancellation of completed contracts to HR staff
func (p *EmploymentContractPolicy) CanCancelApproved(actor *entity.User) bool {
	return actor.Role == entity.RoleHRStaff
}

// OnApproved has no side effect for contracts
func (p *EmploymentContractPolicy) OnApproved(_ context.Context, _ *entity.Document) error {
	return nil
}

// OnCancelled has no compensating side effect for contracts
func (p *EmploymentContractPolicy) OnCancelled(_ context.Context, _ *entity.Document) error {
	return nil
}
