// Package routing represents which of the two approval paths drives a
// document: the legacy fixed stage sequence or a data-driven approval line.
// The mode is a tagged variant so engine logic can switch on it exhaustively
// instead of probing nullable fields.
package routing

import (
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// Mode discriminates the routing variant
type Mode int

const (
	// ModeNone means the document is not in flight (DRAFT, terminal states)
	ModeNone Mode = iota
	// ModeLegacy means the fixed per-type stage sequence drives routing
	ModeLegacy
	// ModeLine means an attached approval line drives routing
	ModeLine
)

// Routing is the tagged variant. Use Legacy, LineBased, or None to construct
// and FromDocument to derive it from persisted state.
type Routing struct {
	mode      Mode
	stage     entity.LegacyStage
	lineID    int64
	stepOrder int
}

// None returns the not-in-flight routing value
func None() Routing {
	return Routing{mode: ModeNone}
}

// Legacy returns a routing value pinned at the given fixed stage
func Legacy(stage entity.LegacyStage) Routing {
	return Routing{mode: ModeLegacy, stage: stage}
}

// LineBased returns a routing value at the given approval line step
func LineBased(lineID int64, stepOrder int) Routing {
	return Routing{mode: ModeLine, lineID: lineID, stepOrder: stepOrder}
}

// FromDocument derives the routing variant from a document's persisted
// fields. A document carrying both an approval line and a legacy stage is a
// corrupt configuration; per the fail-closed rule this returns a
// configuration error rather than guessing.
func FromDocument(doc *entity.Document) (Routing, error) {
	hasLine := doc.ApprovalLineID != nil
	hasStage := doc.LegacyStage != nil

	switch {
	case hasLine && hasStage:
		return Routing{}, workflow.Configurationf(
			"document %d has both approval line %d and legacy stage %s",
			doc.ID, *doc.ApprovalLineID, *doc.LegacyStage)
	case hasLine:
		step := 1
		if doc.CurrentStepOrder != nil {
			step = *doc.CurrentStepOrder
		}
		if step < 1 {
			return Routing{}, workflow.Configurationf(
				"document %d has non-positive step order %d", doc.ID, step)
		}
		return LineBased(*doc.ApprovalLineID, step), nil
	case hasStage:
		return Legacy(*doc.LegacyStage), nil
	default:
		return None(), nil
	}
}

// Mode returns the variant tag
func (r Routing) Mode() Mode {
	return r.mode
}

// Stage returns the pending legacy stage; only meaningful for ModeLegacy
func (r Routing) Stage() entity.LegacyStage {
	return r.stage
}

// LineID returns the attached approval line id; only meaningful for ModeLine
func (r Routing) LineID() int64 {
	return r.lineID
}

// StepOrder returns the current 1-based step; only meaningful for ModeLine
func (r Routing) StepOrder() int {
	return r.stepOrder
}

// Apply writes the variant back onto the document's persisted fields,
// clearing whichever representation is not in use.
func (r Routing) Apply(doc *entity.Document) {
	switch r.mode {
	case ModeLegacy:
		stage := r.stage
		doc.LegacyStage = &stage
		doc.ApprovalLineID = nil
		doc.CurrentStepOrder = nil
	case ModeLine:
		lineID := r.lineID
		step := r.stepOrder
		doc.ApprovalLineID = &lineID
		doc.CurrentStepOrder = &step
		doc.LegacyStage = nil
	default:
		doc.LegacyStage = nil
		doc.CurrentStepOrder = nil
		// A completed line-routed document keeps its line reference for
		// audit; the stage pointer alone is cleared.
	}
}
