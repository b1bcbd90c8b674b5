// Package policy holds the per-document-type strategies: the legacy fixed
// routing sequence and the side effects the engine invokes on terminal
// transitions.
package policy

import (
	"context"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// StageDef describes one materialized stage of the legacy routing path
type StageDef struct {
	Stage                  entity.LegacyStage
	State                  workflow.State
	Slot                   entity.Slot
	Approver               entity.ApproverRef
	FinalApprovalAvailable bool
}

// Policy is the strategy contract a document type supplies to the engine
type Policy interface {
	// DocumentType returns the type this policy is registered for
	DocumentType() entity.DocumentType

	// LegacySequence materializes the fixed stage sequence for an applicant.
	// Inapplicable stages (self-approval, seniority) are already filtered out.
	LegacySequence(applicant *entity.User, doc *entity.Document) ([]StageDef, error)

	// DraftSlots lists the slots the applicant signs while the document is in
	// DRAFT; all of them must be signed before submit.
	DraftSlots() []entity.Slot

	// StageSlots lists the slots the current approver may write at a stage
	StageSlots(stage entity.LegacyStage) []entity.Slot

	// BuildContext extracts the directory lookup context from the document
	BuildContext(applicant *entity.User, doc *entity.Document) (entity.DocumentContext, error)

	// ValidateSubmit checks type-specific submit preconditions
	ValidateSubmit(applicant *entity.User, doc *entity.Document) error

	// ValidateApprove checks type-specific completeness before an approval at
	// a stage is accepted (e.g. all contract pages signed).
	ValidateApprove(doc *entity.Document, stage entity.LegacyStage) error

	// ApprovedState returns the approved-terminal state for this type
	ApprovedState() workflow.State

	// AllowsFinalApproval reports whether a legacy stage carries delegated
	// short-circuit authority.
	AllowsFinalApproval(stage entity.LegacyStage, approver *entity.User) bool

	// CanReturnToDraft reports whether the actor may return a submitted
	// document to its author.
	CanReturnToDraft(actor *entity.User, doc *entity.Document) bool

	// CanCancelApproved reports whether the actor holds the type-specific
	// override permission for post-completion cancellation.
	CanCancelApproved(actor *entity.User) bool

	// OnApproved runs the type's side effect when the document reaches its
	// approved-terminal state. Invoked inside the engine's transaction.
	OnApproved(ctx context.Context, doc *entity.Document) error

	// OnCancelled runs the compensating side effect of cancelApproved.
	// Invoked inside the engine's transaction; a failure here rolls back the
	// status change.
	OnCancelled(ctx context.Context, doc *entity.Document) error
}

// Registry maps document types to their policies
type Registry struct {
	policies map[entity.DocumentType]Policy
}

// NewRegistry creates a registry over the given policies
func NewRegistry(policies ...Policy) *Registry {
	r := &Registry{policies: make(map[entity.DocumentType]Policy, len(policies))}
	for _, p := range policies {
		r.policies[p.DocumentType()] = p
	}
	return r
}

// Get returns the policy for a document type
func (r *Registry) Get(docType entity.DocumentType) (Policy, error) {
	p, ok := r.policies[docType]
	if !ok {
		return nil, workflow.Configurationf("no policy registered for document type %s", docType)
	}
	return p, nil
}
