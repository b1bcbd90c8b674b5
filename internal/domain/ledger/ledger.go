// Package ledger guards a document's signature slots: at most one active
// signature per slot, slots writable only while their step is current, and
// non-decreasing timestamps within a slot's active lifetime.
package ledger

import (
	"time"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// Ledger wraps one document's signature set. The document exclusively owns
// its signatures, so a ledger is always constructed over a loaded aggregate
// and never outlives the engine operation using it.
type Ledger struct {
	doc *entity.Document
}

// ForDocument returns a ledger over the document's signature set
func ForDocument(doc *entity.Document) *Ledger {
	return &Ledger{doc: doc}
}

// Get returns the signature record for a slot, or nil if the slot has never
// been touched.
func (l *Ledger) Get(slot entity.Slot) *entity.Signature {
	if l.doc.Signatures == nil {
		return nil
	}
	return l.doc.Signatures[slot]
}

// IsSigned reports whether the slot currently holds an active signature
func (l *Ledger) IsSigned(slot entity.Slot) bool {
	sig := l.Get(slot)
	return sig != nil && sig.IsSigned
}

// Sign writes an active signature into a slot. The allowed set is the slots
// belonging to the document's current step; writing outside it is rejected so
// late or early signing cannot race the step pointer. Signing an already
// active slot returns ErrAlreadySigned as an idempotent no-op signal.
func (l *Ledger) Sign(slot entity.Slot, allowed []entity.Slot, signerID, imageRef string, at time.Time) error {
	if !slotAllowed(slot, allowed) {
		return workflow.Authorizationf("slot %s is not signable at the current step", slot)
	}

	sig := l.doc.Signature(slot)
	if sig.IsSigned {
		return workflow.ErrAlreadySigned
	}
	if sig.AutoSatisfiedByFinalApproval {
		return workflow.Validationf("slot %s was satisfied by a final approval", slot)
	}
	if sig.SignedAt != nil && at.Before(*sig.SignedAt) {
		return workflow.Conflictf("slot %s signature timestamp would move backwards", slot)
	}

	signedAt := at
	sig.IsSigned = true
	sig.ImageRef = imageRef
	sig.SignedAt = &signedAt
	sig.SignedBy = signerID
	return nil
}

// Clear resets a slot back to empty. Only the original signer may clear it,
// and only while the slot's step is still current; completed earlier steps
// are immutable.
func (l *Ledger) Clear(slot entity.Slot, allowed []entity.Slot, actorID string) error {
	if !slotAllowed(slot, allowed) {
		return workflow.Authorizationf("slot %s is not clearable at the current step", slot)
	}

	sig := l.Get(slot)
	if sig == nil || !sig.IsSigned {
		return workflow.Validationf("slot %s is not signed", slot)
	}
	if sig.SignedBy != actorID {
		return workflow.Authorizationf("only the original signer may unsign slot %s", slot)
	}

	// Keep the previous timestamp so a later re-sign cannot move time backwards
	prev := sig.SignedAt
	sig.Reset()
	sig.SignedAt = prev
	return nil
}

// MarkAutoSatisfied flags slots as satisfied by a delegated final approval.
// Auto-satisfied slots are distinct from actually signed ones: IsSigned stays
// false. Slots already signed are left untouched.
func (l *Ledger) MarkAutoSatisfied(slots []entity.Slot) {
	for _, slot := range slots {
		sig := l.doc.Signature(slot)
		if sig.IsSigned {
			continue
		}
		sig.AutoSatisfiedByFinalApproval = true
	}
}

// AllSigned reports whether every listed slot holds an active signature
func (l *Ledger) AllSigned(slots []entity.Slot) bool {
	for _, slot := range slots {
		if !l.IsSigned(slot) {
			return false
		}
	}
	return true
}

func slotAllowed(slot entity.Slot, allowed []entity.Slot) bool {
	for _, s := range allowed {
		if s == slot {
			return true
		}
	}
	return false
}
