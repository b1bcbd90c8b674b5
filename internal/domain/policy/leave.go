package policy

import (
	"context"
	"strings"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
	"github.com/withushr/approval-engine/pkg/utils"
)

// LeaveBalanceStore is the narrow balance dependency of the leave policy
type LeaveBalanceStore interface {
	Debit(ctx context.Context, userID string, days float64) error
	Credit(ctx context.Context, userID string, days float64) error
}

// LeaveApplicationPolicy routes leave applications through the fixed
// substitute → department head → HR → directors chain and settles the
// applicant's leave balance on terminal transitions.
type LeaveApplicationPolicy struct {
	balances LeaveBalanceStore
}

// NewLeaveApplicationPolicy creates the leave application policy
func NewLeaveApplicationPolicy(balances LeaveBalanceStore) *LeaveApplicationPolicy {
	return &LeaveApplicationPolicy{balances: balances}
}

// DocumentType returns the type this policy is registered for
func (p *LeaveApplicationPolicy) DocumentType() entity.DocumentType {
	return entity.DocumentTypeLeaveApplication
}

// fullLeaveSequence is the complete legacy chain before per-applicant filtering
func fullLeaveSequence(applicant *entity.User) []StageDef {
	return []StageDef{
		{
			Stage:    entity.StageSubstitute,
			State:    workflow.StatePendingSubstitute,
			Slot:     entity.SlotSubstitute,
			Approver: entity.ApproverRef{Type: entity.ApproverTypeSubstitute},
		},
		{
			Stage:    entity.StageDepartmentHead,
			State:    workflow.StatePendingDeptHead,
			Slot:     entity.SlotDepartmentHead,
			Approver: entity.ApproverRef{Type: entity.ApproverTypeDepartmentHead, DeptCode: applicant.DeptCode},
		},
		{
			Stage:    entity.StageHRStaff,
			State:    workflow.StatePendingHRStaff,
			Slot:     entity.SlotHRStaff,
			Approver: entity.ApproverRef{Type: entity.ApproverTypeHRStaff},
		},
		{
			Stage:                  entity.StageCenterDirector,
			State:                  workflow.StatePendingCenterDirector,
			Slot:                   entity.SlotCenterDirector,
			Approver:               entity.ApproverRef{Type: entity.ApproverTypeCenterDirector},
			FinalApprovalAvailable: true,
		},
		{
			Stage:    entity.StageHRFinal,
			State:    workflow.StatePendingHRFinal,
			Slot:     entity.SlotHRFinal,
			Approver: entity.ApproverRef{Type: entity.ApproverTypeHRStaff},
		},
		{
			Stage:                  entity.StageAdminDirector,
			State:                  workflow.StatePendingAdminDirector,
			Slot:                   entity.SlotAdminDirector,
			Approver:               entity.ApproverRef{Type: entity.ApproverTypeAdminDirector},
			FinalApprovalAvailable: true,
		},
		{
			Stage:                  entity.StageCEODirector,
			State:                  workflow.StatePendingCEODirector,
			Slot:                   entity.SlotCEODirector,
			Approver:               entity.ApproverRef{Type: entity.ApproverTypeCEODirector},
			FinalApprovalAvailable: true,
		},
	}
}

// stageRoles maps each leave stage to the role that acts at it, used for the
// self-approval skip rule.
var stageRoles = map[entity.LegacyStage]entity.Role{
	entity.StageDepartmentHead: entity.RoleDepartmentHead,
	entity.StageHRStaff:        entity.RoleHRStaff,
	entity.StageCenterDirector: entity.RoleCenterDirector,
	entity.StageHRFinal:        entity.RoleHRStaff,
	entity.StageAdminDirector:  entity.RoleAdminDirector,
	entity.StageCEODirector:    entity.RoleCEODirector,
}

// LegacySequence materializes the chain for one applicant. Two filters apply:
// the substitute stage exists only for entry-level applicants, and a stage
// whose acting role is the applicant's own role is skipped (a department
// head's own application never waits on the department head).
func (p *LeaveApplicationPolicy) LegacySequence(applicant *entity.User, _ *entity.Document) ([]StageDef, error) {
	var stages []StageDef
	for _, def := range fullLeaveSequence(applicant) {
		if def.Stage == entity.StageSubstitute && !applicant.IsEntryLevel() {
			continue
		}
		if role, ok := stageRoles[def.Stage]; ok && role == applicant.Role {
			continue
		}
		stages = append(stages, def)
	}
	if len(stages) == 0 {
		return nil, workflow.Configurationf("leave sequence is empty for applicant %s", applicant.ID)
	}
	return stages, nil
}

// DraftSlots lists the slots signed before submit
func (p *LeaveApplicationPolicy) DraftSlots() []entity.Slot {
	return []entity.Slot{entity.SlotApplicant}
}

// StageSlots lists the slots writable at a stage
func (p *LeaveApplicationPolicy) StageSlots(stage entity.LegacyStage) []entity.Slot {
	for _, def := range fullLeaveSequence(&entity.User{}) {
		if def.Stage == stage {
			return []entity.Slot{def.Slot}
		}
	}
	return nil
}

// BuildContext extracts the designated substitute from the form data
func (p *LeaveApplicationPolicy) BuildContext(applicant *entity.User, doc *entity.Document) (entity.DocumentContext, error) {
	payload, err := doc.ParseLeavePayload()
	if err != nil {
		return entity.DocumentContext{}, workflow.Validationf("malformed leave application payload: %v", err)
	}
	return entity.DocumentContext{Applicant: applicant, SubstituteID: payload.SubstituteID}, nil
}

// ValidateSubmit checks the leave-specific submit preconditions
func (p *LeaveApplicationPolicy) ValidateSubmit(applicant *entity.User, doc *entity.Document) error {
	payload, err := doc.ParseLeavePayload()
	if err != nil {
		return workflow.Validationf("malformed leave application payload: %v", err)
	}
	if strings.TrimSpace(payload.LeaveType) == "" {
		return workflow.Validationf("no leave type selected")
	}
	if payload.StartDate != "" || payload.EndDate != "" {
		if err := utils.ValidateDateRange(payload.StartDate, payload.EndDate); err != nil {
			return workflow.Validationf("%v", err)
		}
	}
	if err := utils.ValidateHalfDayIncrement(payload.TotalDays); err != nil {
		return workflow.Validationf("%v", err)
	}
	if applicant.IsEntryLevel() && payload.SubstituteID == "" {
		return workflow.Validationf("a substitute must be designated before submitting")
	}
	return nil
}

// ValidateApprove has no extra completeness requirement for leave stages;
// signing and approval remain independently triggerable.
func (p *LeaveApplicationPolicy) ValidateApprove(_ *entity.Document, _ entity.LegacyStage) error {
	return nil
}

// ApprovedState returns APPROVED
func (p *LeaveApplicationPolicy) ApprovedState() workflow.State {
	return workflow.StateApproved
}

// AllowsFinalApproval grants delegated short-circuit authority to the
// director stages of the legacy chain.
func (p *LeaveApplicationPolicy) AllowsFinalApproval(stage entity.LegacyStage, _ *entity.User) bool {
	switch stage {
	case entity.StageCenterDirector, entity.StageAdminDirector, entity.StageCEODirector:
		return true
	}
	return false
}

// CanReturnToDraft is a contract-only capability
func (p *LeaveApplicationPolicy) CanReturnToDraft(_ *entity.User, _ *entity.Document) bool {
	return false
}

// CanCancelApproved restricts post-approval cancellation to HR staff
func (p *LeaveApplicationPolicy) CanCancelApproved(actor *entity.User) bool {
	return actor.Role == entity.RoleHRStaff
}

// OnApproved debits the consumed days from the applicant's balance
func (p *LeaveApplicationPolicy) OnApproved(ctx context.Context, doc *entity.Document) error {
	payload, err := doc.ParseLeavePayload()
	if err != nil {
		return workflow.Validationf("malformed leave application payload: %v", err)
	}
	return p.balances.Debit(ctx, doc.ApplicantID, payload.TotalDays)
}

// OnCancelled credits the days back. The engine runs this inside the cancel
// transaction so a credit failure rolls back the status change.
func (p *LeaveApplicationPolicy) OnCancelled(ctx context.Context, doc *entity.Document) error {
	payload, err := doc.ParseLeavePayload()
	if err != nil {
		return workflow.Validationf("malformed leave application payload: %v", err)
	}
	return p.balances.Credit(ctx, doc.ApplicantID, payload.TotalDays)
}
