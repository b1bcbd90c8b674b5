package workflow

import (
	"context"

	"github.com/withushr/approval-engine/internal/domain/policy"
	domainwf "github.com/withushr/approval-engine/internal/domain/workflow"
)

// BuildLegacyMachine configures the transition graph for a document routed
// through a materialized legacy stage sequence. The machine is built fresh
// per operation from the persisted status; advancing over a skipped stage is
// an extra APPROVE fire, so the machine stays authoritative for every hop.
func BuildLegacyMachine(stages []policy.StageDef, approvedState domainwf.State, current domainwf.State) (domainwf.StateMachine, error) {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, stages[0].State)

	// A returned document resubmits into the head of the chain
	builder.Configure(domainwf.StateReturned).
		Permit(domainwf.TriggerSubmit, stages[0].State)

	for i, def := range stages {
		next := approvedState
		if i+1 < len(stages) {
			next = stages[i+1].State
		}

		cfg := builder.Configure(def.State).
			Permit(domainwf.TriggerApprove, next).
			Permit(domainwf.TriggerReject, domainwf.StateRejected).
			Permit(domainwf.TriggerReturn, domainwf.StateReturned)
		if def.FinalApprovalAvailable {
			cfg.Permit(domainwf.TriggerFinalApprove, approvedState)
		}
	}

	builder.Configure(approvedState).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	return builder.Build(current)
}

// BuildLineMachine configures the transition graph for approval-line routing,
// where every intermediate step shares the generic PENDING state. Whether an
// APPROVE lands on PENDING again or on the approved state is decided by the
// hasNext guard the engine closes over after resolving the next step.
func BuildLineMachine(approvedState domainwf.State, hasNext func() bool, current domainwf.State) (domainwf.StateMachine, error) {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePending)

	builder.Configure(domainwf.StateReturned).
		Permit(domainwf.TriggerSubmit, domainwf.StatePending)

	builder.Configure(domainwf.StatePending).
		PermitIf(domainwf.TriggerApprove, domainwf.StatePending, func(context.Context) bool { return hasNext() }).
		PermitIf(domainwf.TriggerApprove, approvedState, func(context.Context) bool { return !hasNext() }).
		Permit(domainwf.TriggerFinalApprove, approvedState).
		Permit(domainwf.TriggerReject, domainwf.StateRejected).
		Permit(domainwf.TriggerReturn, domainwf.StateReturned)

	builder.Configure(approvedState).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	return builder.Build(current)
}
