package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

func newDoc() *entity.Document {
	return &entity.Document{
		ID:         1,
		Signatures: make(map[entity.Slot]*entity.Signature),
	}
}

func TestSignAndRead(t *testing.T) {
	doc := newDoc()
	led := ForDocument(doc)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	allowed := []entity.Slot{entity.SlotApplicant}
	require.NoError(t, led.Sign(entity.SlotApplicant, allowed, "emp-001", "sig.png", at))

	assert.True(t, led.IsSigned(entity.SlotApplicant))
	sig := led.Get(entity.SlotApplicant)
	require.NotNil(t, sig)
	assert.Equal(t, "emp-001", sig.SignedBy)
	assert.Equal(t, "sig.png", sig.ImageRef)
	assert.Equal(t, at, *sig.SignedAt)
}

func TestSignOutsideCurrentStep(t *testing.T) {
	led := ForDocument(newDoc())

	err := led.Sign(entity.SlotCEODirector, []entity.Slot{entity.SlotApplicant}, "ceo-001", "", time.Now())
	assert.True(t, workflow.IsAuthorization(err))
	assert.False(t, led.IsSigned(entity.SlotCEODirector))
}

func TestDoubleSignIsIdempotentSignal(t *testing.T) {
	led := ForDocument(newDoc())
	allowed := []entity.Slot{entity.SlotApplicant}
	at := time.Now()

	require.NoError(t, led.Sign(entity.SlotApplicant, allowed, "emp-001", "first.png", at))

	err := led.Sign(entity.SlotApplicant, allowed, "emp-002", "second.png", at.Add(time.Hour))
	assert.True(t, errors.Is(err, workflow.ErrAlreadySigned))

	// The original signature is untouched
	sig := led.Get(entity.SlotApplicant)
	assert.Equal(t, "emp-001", sig.SignedBy)
	assert.Equal(t, "first.png", sig.ImageRef)
}

func TestClearOnlyByOriginalSigner(t *testing.T) {
	led := ForDocument(newDoc())
	allowed := []entity.Slot{entity.SlotApplicant}

	require.NoError(t, led.Sign(entity.SlotApplicant, allowed, "emp-001", "", time.Now()))

	err := led.Clear(entity.SlotApplicant, allowed, "emp-002")
	assert.True(t, workflow.IsAuthorization(err))
	assert.True(t, led.IsSigned(entity.SlotApplicant))

	require.NoError(t, led.Clear(entity.SlotApplicant, allowed, "emp-001"))
	assert.False(t, led.IsSigned(entity.SlotApplicant))
}

func TestClearUnsignedSlot(t *testing.T) {
	led := ForDocument(newDoc())

	err := led.Clear(entity.SlotApplicant, []entity.Slot{entity.SlotApplicant}, "emp-001")
	assert.True(t, workflow.IsValidation(err))
}

func TestTimestampMonotonicity(t *testing.T) {
	led := ForDocument(newDoc())
	allowed := []entity.Slot{entity.SlotApplicant}
	first := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, led.Sign(entity.SlotApplicant, allowed, "emp-001", "", first))
	require.NoError(t, led.Clear(entity.SlotApplicant, allowed, "emp-001"))

	// A re-sign with an earlier clock is refused
	err := led.Sign(entity.SlotApplicant, allowed, "emp-001", "", first.Add(-time.Minute))
	assert.True(t, workflow.IsConflict(err))

	// At or after the previous timestamp is fine
	assert.NoError(t, led.Sign(entity.SlotApplicant, allowed, "emp-001", "", first.Add(time.Minute)))
}

func TestMarkAutoSatisfied(t *testing.T) {
	led := ForDocument(newDoc())
	allowed := []entity.Slot{entity.SlotHRStaff}

	require.NoError(t, led.Sign(entity.SlotHRStaff, allowed, "hr-001", "", time.Now()))

	led.MarkAutoSatisfied([]entity.Slot{entity.SlotHRStaff, entity.SlotAdminDirector, entity.SlotCEODirector})

	// Auto-satisfaction is distinct from signing
	assert.False(t, led.IsSigned(entity.SlotAdminDirector))
	assert.True(t, led.Get(entity.SlotAdminDirector).AutoSatisfiedByFinalApproval)
	assert.True(t, led.Get(entity.SlotCEODirector).AutoSatisfiedByFinalApproval)

	// A slot already signed keeps its real signature
	assert.True(t, led.IsSigned(entity.SlotHRStaff))
	assert.False(t, led.Get(entity.SlotHRStaff).AutoSatisfiedByFinalApproval)

	// An auto-satisfied slot refuses a late manual signature
	err := led.Sign(entity.SlotAdminDirector, []entity.Slot{entity.SlotAdminDirector}, "admin-001", "", time.Now())
	assert.True(t, workflow.IsValidation(err))
}

func TestAllSigned(t *testing.T) {
	led := ForDocument(newDoc())
	slots := []entity.Slot{entity.SlotContractPage1, entity.SlotContractPage2}

	assert.False(t, led.AllSigned(slots))

	require.NoError(t, led.Sign(entity.SlotContractPage1, slots, "emp-001", "", time.Now()))
	assert.False(t, led.AllSigned(slots))

	require.NoError(t, led.Sign(entity.SlotContractPage2, slots, "emp-001", "", time.Now()))
	assert.True(t, led.AllSigned(slots))
}
