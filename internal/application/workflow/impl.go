package workflow

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/ledger"
	"github.com/withushr/approval-engine/internal/domain/policy"
	"github.com/withushr/approval-engine/internal/domain/routing"
	domainwf "github.com/withushr/approval-engine/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	docs      port.DocumentRepository
	lines     port.ApprovalLineRepository
	users     port.UserRepository
	directory port.ApproverDirectory
	policies  *policy.Registry
	txManager port.TransactionManager
	logger    *zap.Logger

	locks *docLocks
	now   func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	docs port.DocumentRepository,
	lines port.ApprovalLineRepository,
	users port.UserRepository,
	directory port.ApproverDirectory,
	policies *policy.Registry,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		docs:      docs,
		lines:     lines,
		users:     users,
		directory: directory,
		policies:  policies,
		txManager: txManager,
		logger:    logger,
		locks:     newDocLocks(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create makes a new DRAFT document owned by the actor
func (e *engineImpl) Create(ctx context.Context, actorID string, docType entity.DocumentType, payload json.RawMessage) (*entity.Document, error) {
	if !docType.IsValid() {
		return nil, domainwf.Validationf("unknown document type %s", docType)
	}
	if _, err := e.policies.Get(docType); err != nil {
		return nil, err
	}
	if _, err := e.getUser(ctx, actorID); err != nil {
		return nil, err
	}

	now := e.now()
	doc := &entity.Document{
		DocumentType: docType,
		Status:       domainwf.StateDraft.String(),
		ApplicantID:  actorID,
		Payload:      payload,
		Signatures:   make(map[entity.Slot]*entity.Signature),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	e.logger.Info("Document created",
		zap.Int64("document_id", doc.ID),
		zap.String("document_type", docType.String()),
		zap.String("applicant_id", actorID))
	return doc, nil
}

// Get loads a document with its signature set
func (e *engineImpl) Get(ctx context.Context, documentID int64) (*entity.Document, error) {
	return e.loadDocument(ctx, documentID)
}

// Sign writes a signature into a slot of the document's current step
func (e *engineImpl) Sign(ctx context.Context, documentID int64, actorID string, slot entity.Slot, imageRef string) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}

	allowed, err := e.signableSlots(ctx, pol, doc, actorID)
	if err != nil {
		return nil, err
	}

	led := ledger.ForDocument(doc)
	if err := led.Sign(slot, allowed, actorID, imageRef, e.now()); err != nil {
		// ErrAlreadySigned is the idempotent no-op signal; the document is
		// returned unchanged alongside it.
		return doc, err
	}

	if err := e.persist(ctx, doc, nil); err != nil {
		return nil, err
	}
	return doc, nil
}

// Unsign resets a slot the actor signed while its step is still current
func (e *engineImpl) Unsign(ctx context.Context, documentID int64, actorID string, slot entity.Slot) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}

	allowed, err := e.signableSlots(ctx, pol, doc, actorID)
	if err != nil {
		return nil, err
	}

	led := ledger.ForDocument(doc)
	if err := led.Clear(slot, allowed, actorID); err != nil {
		return nil, err
	}

	if err := e.persist(ctx, doc, nil); err != nil {
		return nil, err
	}
	return doc, nil
}

// Submit routes a draft (or returned) document to its first approver
func (e *engineImpl) Submit(ctx context.Context, documentID int64, actorID string, approvalLineID *int64) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if actorID != doc.ApplicantID {
		return nil, domainwf.Authorizationf("only the applicant may submit document %d", documentID)
	}

	state := domainwf.State(doc.Status)
	if state != domainwf.StateDraft && state != domainwf.StateReturned {
		return nil, domainwf.Validationf("document %d in state %s cannot be submitted", documentID, state)
	}

	// Fail closed on a corrupt routing configuration before doing anything
	rt, err := routing.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	if state == domainwf.StateDraft && rt.Mode() != routing.ModeNone {
		return nil, domainwf.Configurationf("draft document %d already carries routing state", documentID)
	}

	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}
	applicant, err := e.getUser(ctx, doc.ApplicantID)
	if err != nil {
		return nil, err
	}

	if err := pol.ValidateSubmit(applicant, doc); err != nil {
		return nil, err
	}

	led := ledger.ForDocument(doc)
	if !led.AllSigned(pol.DraftSlots()) {
		return nil, domainwf.Validationf("document %d is missing the author's signature", documentID)
	}

	docCtx, err := pol.BuildContext(applicant, doc)
	if err != nil {
		return nil, err
	}

	if approvalLineID != nil {
		err = e.submitLine(ctx, doc, pol, docCtx, *approvalLineID, state)
	} else {
		err = e.submitLegacy(ctx, doc, pol, applicant, docCtx, state)
	}
	if err != nil {
		return nil, err
	}

	doc.RejectionReason = nil
	if err := e.persist(ctx, doc, nil); err != nil {
		return nil, err
	}

	e.logger.Info("Document submitted",
		zap.Int64("document_id", doc.ID),
		zap.String("status", doc.Status),
		zap.Stringp("current_approver_id", doc.CurrentApproverID))
	return doc, nil
}

func (e *engineImpl) submitLegacy(ctx context.Context, doc *entity.Document, pol policy.Policy, applicant *entity.User, docCtx entity.DocumentContext, from domainwf.State) error {
	stages, err := pol.LegacySequence(applicant, doc)
	if err != nil {
		return err
	}

	idx, approver, err := e.resolveLegacyFrom(ctx, stages, 0, docCtx, doc.ApplicantID)
	if err != nil {
		return err
	}
	if approver == nil {
		return domainwf.Configurationf("every stage of the legacy sequence resolves to the applicant")
	}

	// Trim the already-skipped head so the machine's submit target is the
	// stage actually entered.
	stages = stages[idx:]
	machine, err := BuildLegacyMachine(stages, pol.ApprovedState(), from)
	if err != nil {
		return err
	}
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return err
	}

	routing.Legacy(stages[0].Stage).Apply(doc)
	doc.SetCurrentApprover(approver.ID)
	doc.Status = machine.State().String()
	return nil
}

func (e *engineImpl) submitLine(ctx context.Context, doc *entity.Document, pol policy.Policy, docCtx entity.DocumentContext, lineID int64, from domainwf.State) error {
	line, err := e.loadLine(ctx, lineID)
	if err != nil {
		return err
	}
	if !line.IsActive {
		return domainwf.Validationf("approval line %d is inactive and cannot be attached", lineID)
	}
	if line.DocumentType != doc.DocumentType {
		return domainwf.Validationf("approval line %d is for %s documents", lineID, line.DocumentType)
	}
	if err := line.Validate(); err != nil {
		return domainwf.Configurationf("approval line %d is malformed: %v", lineID, err)
	}

	order, approver, err := e.resolveLineFrom(ctx, line, 1, docCtx)
	if err != nil {
		return err
	}
	if approver == nil {
		return domainwf.ErrNoEligibleApprover
	}

	machine, err := BuildLineMachine(pol.ApprovedState(), func() bool { return true }, from)
	if err != nil {
		return err
	}
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return err
	}

	routing.LineBased(line.ID, order).Apply(doc)
	doc.SetCurrentApprover(approver.ID)
	doc.Status = machine.State().String()
	return nil
}

// Approve records the current approver's decision and advances the document
func (e *engineImpl) Approve(ctx context.Context, documentID int64, actorID string, opts ApproveOptions) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	expectedVersion := doc.Version

	if doc.CurrentApproverID == nil {
		return nil, domainwf.Authorizationf("document %d has no current approver", documentID)
	}
	if !doc.IsCurrentApprover(actorID) {
		return nil, domainwf.Authorizationf("user %s is not the current approver of document %d", actorID, documentID)
	}

	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}
	applicant, err := e.getUser(ctx, doc.ApplicantID)
	if err != nil {
		return nil, err
	}
	actor, err := e.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	docCtx, err := pol.BuildContext(applicant, doc)
	if err != nil {
		return nil, err
	}

	rt, err := routing.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	switch rt.Mode() {
	case routing.ModeLegacy:
		err = e.approveLegacy(ctx, doc, pol, applicant, actor, docCtx, rt, opts)
	case routing.ModeLine:
		err = e.approveLine(ctx, doc, pol, actor, docCtx, rt, opts)
	default:
		err = domainwf.Configurationf("document %d is pending without routing state", documentID)
	}
	if err != nil {
		return nil, err
	}

	var effect func(context.Context) error
	if domainwf.State(doc.Status) == pol.ApprovedState() {
		effect = func(txCtx context.Context) error {
			return pol.OnApproved(txCtx, doc)
		}
	}
	if err := e.persistVersion(ctx, doc, expectedVersion, effect); err != nil {
		return nil, err
	}

	e.logger.Info("Document approved",
		zap.Int64("document_id", doc.ID),
		zap.String("status", doc.Status),
		zap.String("approver_id", actorID),
		zap.Bool("final_approval", opts.IsFinalApproval))
	return doc, nil
}

func (e *engineImpl) approveLegacy(ctx context.Context, doc *entity.Document, pol policy.Policy, applicant, actor *entity.User, docCtx entity.DocumentContext, rt routing.Routing, opts ApproveOptions) error {
	stages, err := pol.LegacySequence(applicant, doc)
	if err != nil {
		return err
	}
	idx := -1
	for i, def := range stages {
		if def.Stage == rt.Stage() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domainwf.Configurationf("document %d is pending at unknown stage %s", doc.ID, rt.Stage())
	}
	def := stages[idx]

	led := ledger.ForDocument(doc)
	if opts.SignatureImageRef != "" && !led.IsSigned(def.Slot) {
		if err := led.Sign(def.Slot, pol.StageSlots(def.Stage), actor.ID, opts.SignatureImageRef, e.now()); err != nil {
			return err
		}
	}
	if err := pol.ValidateApprove(doc, def.Stage); err != nil {
		return err
	}

	machine, err := BuildLegacyMachine(stages, pol.ApprovedState(), def.State)
	if err != nil {
		return err
	}

	if opts.IsFinalApproval {
		if !def.FinalApprovalAvailable || !pol.AllowsFinalApproval(def.Stage, actor) {
			return domainwf.Authorizationf("final approval is not available at stage %s", def.Stage)
		}
		if err := machine.Fire(ctx, domainwf.TriggerFinalApprove); err != nil {
			return err
		}

		var remaining []entity.Slot
		for _, later := range stages[idx+1:] {
			remaining = append(remaining, later.Slot)
		}
		led.MarkAutoSatisfied(remaining)
		e.recordFinalApproval(doc, actor.ID, def.Stage.String())
		e.finishApproved(doc, machine.State())
		return nil
	}

	if err := machine.Fire(ctx, domainwf.TriggerApprove); err != nil {
		return err
	}

	if machine.State() == pol.ApprovedState() {
		e.finishApproved(doc, machine.State())
		return nil
	}

	// Walk forward over stages whose resolved approver is the applicant
	// themself; each hop is a real machine transition.
	nextIdx, approver, err := e.resolveLegacyFrom(ctx, stages, idx+1, docCtx, doc.ApplicantID)
	if err != nil {
		return err
	}
	for skip := idx + 1; skip < nextIdx; skip++ {
		if err := machine.Fire(ctx, domainwf.TriggerApprove); err != nil {
			return err
		}
	}
	if approver == nil || machine.State() == pol.ApprovedState() {
		e.finishApproved(doc, pol.ApprovedState())
		return nil
	}

	routing.Legacy(stages[nextIdx].Stage).Apply(doc)
	doc.SetCurrentApprover(approver.ID)
	doc.Status = machine.State().String()
	return nil
}

func (e *engineImpl) approveLine(ctx context.Context, doc *entity.Document, pol policy.Policy, actor *entity.User, docCtx entity.DocumentContext, rt routing.Routing, opts ApproveOptions) error {
	line, err := e.loadLine(ctx, rt.LineID())
	if err != nil {
		return err
	}
	step := line.StepAt(rt.StepOrder())
	if step == nil {
		return domainwf.Configurationf("document %d is pending at missing step %d of line %d", doc.ID, rt.StepOrder(), line.ID)
	}

	led := ledger.ForDocument(doc)
	slot, hasSlot := entity.SlotForApproverType(step.ApproverType)
	if opts.SignatureImageRef != "" && hasSlot && !led.IsSigned(slot) {
		if err := led.Sign(slot, []entity.Slot{slot}, actor.ID, opts.SignatureImageRef, e.now()); err != nil {
			return err
		}
	}

	nextOrder, nextApprover, err := e.resolveLineFrom(ctx, line, rt.StepOrder()+1, docCtx)
	if err != nil {
		return err
	}
	hasNext := nextApprover != nil

	machine, err := BuildLineMachine(pol.ApprovedState(), func() bool { return hasNext }, domainwf.StatePending)
	if err != nil {
		return err
	}

	if opts.IsFinalApproval {
		if !step.IsFinalApprovalAvailable {
			return domainwf.Authorizationf("final approval is not available at step %d of line %d", step.StepOrder, line.ID)
		}
		if err := machine.Fire(ctx, domainwf.TriggerFinalApprove); err != nil {
			return err
		}

		var remaining []entity.Slot
		for _, later := range line.Steps {
			if later.StepOrder <= step.StepOrder {
				continue
			}
			if laterSlot, ok := entity.SlotForApproverType(later.ApproverType); ok {
				remaining = append(remaining, laterSlot)
			}
		}
		led.MarkAutoSatisfied(remaining)
		e.recordFinalApproval(doc, actor.ID, step.StepName)
		e.finishApproved(doc, machine.State())
		return nil
	}

	if err := machine.Fire(ctx, domainwf.TriggerApprove); err != nil {
		return err
	}

	if !hasNext {
		e.finishApproved(doc, machine.State())
		return nil
	}

	routing.LineBased(line.ID, nextOrder).Apply(doc)
	doc.SetCurrentApprover(nextApprover.ID)
	doc.Status = machine.State().String()
	return nil
}

// Reject closes a pending document with a mandatory reason
func (e *engineImpl) Reject(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	if strings.TrimSpace(reason) == "" {
		return nil, domainwf.Validationf("a rejection reason is required")
	}

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.CurrentApproverID == nil || !doc.IsCurrentApprover(actorID) {
		return nil, domainwf.Authorizationf("user %s is not the current approver of document %d", actorID, documentID)
	}

	machine, err := e.machineForCurrent(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, err
	}

	doc.Status = machine.State().String()
	doc.RejectionReason = &reason
	doc.ClearCurrentApprover()
	routing.None().Apply(doc)

	if err := e.persist(ctx, doc, nil); err != nil {
		return nil, err
	}

	e.logger.Info("Document rejected",
		zap.Int64("document_id", doc.ID),
		zap.String("rejected_by", actorID))
	return doc, nil
}

// ReturnToDraft hands a pending document back to its author for rework
func (e *engineImpl) ReturnToDraft(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}
	actor, err := e.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !pol.CanReturnToDraft(actor, doc) {
		return nil, domainwf.Authorizationf("user %s may not return document %d to its author", actorID, documentID)
	}

	machine, err := e.machineForCurrent(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerReturn); err != nil {
		return nil, err
	}

	doc.Status = machine.State().String()
	if strings.TrimSpace(reason) != "" {
		doc.RejectionReason = &reason
	}
	doc.ClearCurrentApprover()
	routing.None().Apply(doc)

	if err := e.persist(ctx, doc, nil); err != nil {
		return nil, err
	}

	e.logger.Info("Document returned to author",
		zap.Int64("document_id", doc.ID),
		zap.String("returned_by", actorID))
	return doc, nil
}

// CancelApproved reverses an approved document with its compensating action
func (e *engineImpl) CancelApproved(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error) {
	release := e.locks.acquire(documentID)
	defer release()

	if strings.TrimSpace(reason) == "" {
		return nil, domainwf.Validationf("a cancellation reason is required")
	}

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	expectedVersion := doc.Version

	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}
	state := domainwf.State(doc.Status)
	if state != pol.ApprovedState() {
		return nil, domainwf.Validationf("document %d in state %s cannot be cancelled", documentID, state)
	}
	actor, err := e.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !pol.CanCancelApproved(actor) {
		return nil, domainwf.Authorizationf("user %s may not cancel approved document %d", actorID, documentID)
	}

	builder := domainwf.NewBuilder()
	builder.Configure(pol.ApprovedState()).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)
	machine, err := builder.Build(state)
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerCancel); err != nil {
		return nil, err
	}

	doc.Status = machine.State().String()
	doc.CancelReason = &reason

	// The compensating action and the status change commit or roll back
	// together; a failed credit leaves the document APPROVED.
	err = e.persistVersion(ctx, doc, expectedVersion, func(txCtx context.Context) error {
		return pol.OnCancelled(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Approved document cancelled",
		zap.Int64("document_id", doc.ID),
		zap.String("cancelled_by", actorID))
	return doc, nil
}

// Delete hard-removes a DRAFT document and its signatures
func (e *engineImpl) Delete(ctx context.Context, documentID int64, actorID string) error {
	release := e.locks.acquire(documentID)
	defer release()

	doc, err := e.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if actorID != doc.ApplicantID {
		return domainwf.Authorizationf("only the applicant may delete document %d", documentID)
	}
	if domainwf.State(doc.Status) != domainwf.StateDraft {
		return domainwf.Validationf("only draft documents can be deleted")
	}

	return e.docs.Delete(ctx, documentID)
}

// ListByApplicant returns the actor's documents, newest first
func (e *engineImpl) ListByApplicant(ctx context.Context, applicantID string, limit, offset int) ([]*entity.Document, error) {
	return e.docs.ListByApplicant(ctx, applicantID, limit, offset)
}

// ListByStatus returns documents in a given status, newest first
func (e *engineImpl) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Document, error) {
	return e.docs.ListByStatus(ctx, status, limit, offset)
}

// ---- helpers ----

func (e *engineImpl) loadDocument(ctx context.Context, id int64) (*entity.Document, error) {
	doc, err := e.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domainwf.NotFoundf("document %d", id)
	}
	return doc, nil
}

func (e *engineImpl) loadLine(ctx context.Context, id int64) (*entity.ApprovalLine, error) {
	line, err := e.lines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domainwf.NotFoundf("approval line %d", id)
	}
	return line, nil
}

func (e *engineImpl) getUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domainwf.NotFoundf("user %s", id)
	}
	return user, nil
}

// signableSlots returns the slots the actor may write given the document's
// state: the draft slots for the author, or the current step's slots for the
// pending approver.
func (e *engineImpl) signableSlots(ctx context.Context, pol policy.Policy, doc *entity.Document, actorID string) ([]entity.Slot, error) {
	state := domainwf.State(doc.Status)
	switch {
	case state == domainwf.StateDraft || state == domainwf.StateReturned:
		if actorID != doc.ApplicantID {
			return nil, domainwf.Authorizationf("only the applicant may sign document %d before submission", doc.ID)
		}
		return pol.DraftSlots(), nil

	case state.IsPending():
		if !doc.IsCurrentApprover(actorID) {
			return nil, domainwf.Authorizationf("user %s is not the current approver of document %d", actorID, doc.ID)
		}
		return e.currentStepSlots(ctx, pol, doc)

	default:
		return nil, domainwf.Validationf("document %d in state %s cannot be signed", doc.ID, state)
	}
}

func (e *engineImpl) currentStepSlots(ctx context.Context, pol policy.Policy, doc *entity.Document) ([]entity.Slot, error) {
	rt, err := routing.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	switch rt.Mode() {
	case routing.ModeLegacy:
		slots := pol.StageSlots(rt.Stage())
		if len(slots) == 0 {
			return nil, domainwf.Configurationf("stage %s has no signature slots", rt.Stage())
		}
		return slots, nil

	case routing.ModeLine:
		line, err := e.loadLine(ctx, rt.LineID())
		if err != nil {
			return nil, err
		}
		step := line.StepAt(rt.StepOrder())
		if step == nil {
			return nil, domainwf.Configurationf("line %d has no step %d", line.ID, rt.StepOrder())
		}
		slot, ok := entity.SlotForApproverType(step.ApproverType)
		if !ok {
			return nil, domainwf.Configurationf("step %d of line %d has no signature slot", step.StepOrder, line.ID)
		}
		return []entity.Slot{slot}, nil

	default:
		return nil, domainwf.Configurationf("document %d is pending without routing state", doc.ID)
	}
}

// resolveLegacyFrom finds the first stage at or after idx whose approver
// resolves to someone other than the applicant. Resolution failures are real
// errors; the legacy chain never skips silently.
func (e *engineImpl) resolveLegacyFrom(ctx context.Context, stages []policy.StageDef, idx int, docCtx entity.DocumentContext, applicantID string) (int, *entity.User, error) {
	for i := idx; i < len(stages); i++ {
		approver, err := e.directory.Resolve(ctx, stages[i].Approver, docCtx)
		if err != nil {
			return 0, nil, err
		}
		if approver.ID == applicantID {
			continue
		}
		return i, approver, nil
	}
	return len(stages), nil, nil
}

// resolveLineFrom finds the first resolvable step at or after the given
// order. Steps marked optional or skippable are passed over when their role
// resolves to no one; a required step that cannot resolve is an error. A nil
// user with nil error means the sequence is exhausted.
func (e *engineImpl) resolveLineFrom(ctx context.Context, line *entity.ApprovalLine, order int, docCtx entity.DocumentContext) (int, *entity.User, error) {
	for o := order; o <= len(line.Steps); o++ {
		step := line.StepAt(o)
		if step == nil {
			return 0, nil, domainwf.Configurationf("line %d has no step %d", line.ID, o)
		}
		approver, err := e.directory.Resolve(ctx, step.Ref(), docCtx)
		if err != nil {
			if domainwf.IsNotFound(err) && (step.IsOptional || step.CanSkip) {
				continue
			}
			return 0, nil, err
		}
		return o, approver, nil
	}
	return 0, nil, nil
}

// machineForCurrent rebuilds the transition graph for a pending document so
// reject/return fires are validated against the configured chain.
func (e *engineImpl) machineForCurrent(ctx context.Context, doc *entity.Document) (domainwf.StateMachine, error) {
	pol, err := e.policies.Get(doc.DocumentType)
	if err != nil {
		return nil, err
	}
	rt, err := routing.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	switch rt.Mode() {
	case routing.ModeLegacy:
		applicant, err := e.getUser(ctx, doc.ApplicantID)
		if err != nil {
			return nil, err
		}
		stages, err := pol.LegacySequence(applicant, doc)
		if err != nil {
			return nil, err
		}
		return BuildLegacyMachine(stages, pol.ApprovedState(), domainwf.State(doc.Status))

	case routing.ModeLine:
		return BuildLineMachine(pol.ApprovedState(), func() bool { return false }, domainwf.State(doc.Status))

	default:
		return nil, domainwf.Validationf("document %d is not pending", doc.ID)
	}
}

func (e *engineImpl) recordFinalApproval(doc *entity.Document, approverID, stepName string) {
	at := e.now()
	doc.FinalApproval = entity.FinalApproval{
		IsFinalApproved:   true,
		FinalApproverID:   approverID,
		FinalApprovalStep: stepName,
		FinalApprovalDate: &at,
	}
}

func (e *engineImpl) finishApproved(doc *entity.Document, state domainwf.State) {
	doc.Status = state.String()
	doc.ClearCurrentApprover()
	routing.None().Apply(doc)
}

// persist saves the aggregate under its loaded version
func (e *engineImpl) persist(ctx context.Context, doc *entity.Document, effect func(context.Context) error) error {
	return e.persistVersion(ctx, doc, doc.Version, effect)
}

// persistVersion saves the aggregate with an explicit expected version,
// running the side effect in the same transaction. The repository's
// compare-and-swap turns a concurrent write into a conflict error.
func (e *engineImpl) persistVersion(ctx context.Context, doc *entity.Document, expectedVersion int64, effect func(context.Context) error) error {
	return e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if effect != nil {
			if err := effect(txCtx); err != nil {
				return err
			}
		}
		return e.docs.Save(txCtx, doc, expectedVersion)
	})
}
