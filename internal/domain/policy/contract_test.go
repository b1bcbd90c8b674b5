package policy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

func contractDoc(t *testing.T, payload entity.EmploymentContractPayload) *entity.Document {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &entity.Document{
		ID:           1,
		DocumentType: entity.DocumentTypeEmploymentContract,
		ApplicantID:  "hr-001",
		Payload:      raw,
		Signatures:   make(map[entity.Slot]*entity.Signature),
	}
}

func TestContractSequence(t *testing.T) {
	pol := NewEmploymentContractPolicy()

	stages, err := pol.LegacySequence(nil, nil)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, entity.StageEmployeeSignature, stages[0].Stage)
	assert.Equal(t, workflow.StateSentToEmployee, stages[0].State)
	assert.Equal(t, entity.ApproverTypeEmployee, stages[0].Approver.Type)
	assert.False(t, stages[0].FinalApprovalAvailable)
}

func TestContractDraftRequiresCounterSign(t *testing.T) {
	pol := NewEmploymentContractPolicy()
	assert.Equal(t, []entity.Slot{entity.SlotAdminCounterSign}, pol.DraftSlots())
}

func TestContractStageSlots(t *testing.T) {
	pol := NewEmploymentContractPolicy()

	slots := pol.StageSlots(entity.StageEmployeeSignature)
	assert.Len(t, slots, 8)
	assert.Contains(t, slots, entity.SlotContractPage6)
	assert.Contains(t, slots, entity.SlotConsentTerms)
	assert.Contains(t, slots, entity.SlotConsentPrivacy)

	assert.Nil(t, pol.StageSlots(entity.StageDepartmentHead))
}

func TestContractValidateSubmit(t *testing.T) {
	pol := NewEmploymentContractPolicy()

	err := pol.ValidateSubmit(nil, contractDoc(t, entity.EmploymentContractPayload{}))
	assert.True(t, workflow.IsValidation(err))

	err = pol.ValidateSubmit(nil, contractDoc(t, entity.EmploymentContractPayload{EmployeeID: "emp-001"}))
	assert.NoError(t, err)
}

func TestContractValidateApproveRequiresAllSlots(t *testing.T) {
	pol := NewEmploymentContractPolicy()
	doc := contractDoc(t, entity.EmploymentContractPayload{EmployeeID: "emp-001"})
	now := time.Now()

	sign := func(slot entity.Slot) {
		doc.Signatures[slot] = &entity.Signature{Slot: slot, IsSigned: true, SignedBy: "emp-001", SignedAt: &now}
	}

	// Nothing signed yet
	err := pol.ValidateApprove(doc, entity.StageEmployeeSignature)
	assert.True(t, workflow.IsValidation(err))

	// All pages but no consents
	for _, slot := range []entity.Slot{
		entity.SlotContractPage1, entity.SlotContractPage2, entity.SlotContractPage3,
		entity.SlotContractPage4, entity.SlotContractPage5, entity.SlotContractPage6,
	} {
		sign(slot)
	}
	err = pol.ValidateApprove(doc, entity.StageEmployeeSignature)
	assert.True(t, workflow.IsValidation(err))

	// Consents complete the set
	sign(entity.SlotConsentTerms)
	sign(entity.SlotConsentPrivacy)
	assert.NoError(t, pol.ValidateApprove(doc, entity.StageEmployeeSignature))
}

func TestContractTerminalState(t *testing.T) {
	pol := NewEmploymentContractPolicy()
	assert.Equal(t, workflow.StateCompleted, pol.ApprovedState())
	assert.False(t, pol.AllowsFinalApproval(entity.StageEmployeeSignature, &entity.User{Role: entity.RoleCEODirector}))
}

func TestContractReturnAndCancelPermissions(t *testing.T) {
	pol := NewEmploymentContractPolicy()
	doc := &entity.Document{ApplicantID: "hr-001"}

	assert.True(t, pol.CanReturnToDraft(&entity.User{ID: "hr-001", Role: entity.RoleEmployee}, doc))
	assert.True(t, pol.CanReturnToDraft(&entity.User{ID: "hr-002", Role: entity.RoleHRStaff}, doc))
	assert.False(t, pol.CanReturnToDraft(&entity.User{ID: "emp-001", Role: entity.RoleEmployee}, doc))

	assert.True(t, pol.CanCancelApproved(&entity.User{Role: entity.RoleHRStaff}))
	assert.False(t, pol.CanCancelApproved(&entity.User{Role: entity.RoleEmployee}))
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(
		NewLeaveApplicationPolicy(&stubBalances{}),
		NewEmploymentContractPolicy(),
	)

	pol, err := registry.Get(entity.DocumentTypeLeaveApplication)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentTypeLeaveApplication, pol.DocumentType())

	_, err = registry.Get(entity.DocumentType("EXPENSE_REPORT"))
	assert.True(t, workflow.IsConfiguration(err))
}
