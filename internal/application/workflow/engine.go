package workflow

import (
	"context"
	"encoding/json"

	"github.com/withushr/approval-engine/internal/domain/entity"
)

// ApproveOptions carries the optional parts of an approve call. Approval and
// signing are fused at this boundary but remain two internal effects; a bare
// Sign and a bare Approve stay independently triggerable.
type ApproveOptions struct {
	Comment           string
	SignatureImageRef string
	IsFinalApproval   bool
}

// Engine owns the document state machine: it validates transitions, advances
// the step pointer, applies per-step authorization, and invokes the signature
// ledger and the document type policies' side effects. Every operation takes
// the acting user explicitly; there is no ambient identity. Expected business
// failures come back as typed error values, never panics.
type Engine interface {
	// Create makes a new DRAFT document owned by the actor
	Create(ctx context.Context, actorID string, docType entity.DocumentType, payload json.RawMessage) (*entity.Document, error)

	// Get loads a document with its signature set
	Get(ctx context.Context, documentID int64) (*entity.Document, error)

	// Sign writes a signature into a slot of the document's current step
	Sign(ctx context.Context, documentID int64, actorID string, slot entity.Slot, imageRef string) (*entity.Document, error)

	// Unsign resets a slot the actor signed while its step is still current
	Unsign(ctx context.Context, documentID int64, actorID string, slot entity.Slot) (*entity.Document, error)

	// Submit routes a DRAFT (or returned) document to its first approver,
	// attaching the approval line when one is supplied and falling back to
	// the legacy fixed sequence otherwise.
	Submit(ctx context.Context, documentID int64, actorID string, approvalLineID *int64) (*entity.Document, error)

	// Approve records the current approver's decision and advances the
	// document, or short-circuits the remaining chain on final approval.
	Approve(ctx context.Context, documentID int64, actorID string, opts ApproveOptions) (*entity.Document, error)

	// Reject closes a pending document with a mandatory reason
	Reject(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error)

	// ReturnToDraft hands a pending document back to its author for rework
	ReturnToDraft(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error)

	// CancelApproved reverses an approved document, running the type's
	// compensating side effect atomically with the status change.
	CancelApproved(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error)

	// Delete hard-removes a DRAFT document and its signatures
	Delete(ctx context.Context, documentID int64, actorID string) error

	// ListByApplicant returns the actor's documents, newest first
	ListByApplicant(ctx context.Context, applicantID string, limit, offset int) ([]*entity.Document, error)

	// ListByStatus returns documents in a given status, newest first
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Document, error)
}
