package workflow

import (
	"context"
	"errors"
	"testing"
)

func buildLeaveChain(t *testing.T, initial State) StateMachine {
	t.Helper()

	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingDeptHead)
	builder.Configure(StatePendingDeptHead).
		Permit(TriggerApprove, StatePendingHRStaff).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerReturn, StateReturned)
	builder.Configure(StatePendingHRStaff).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)
	builder.Configure(StateApproved).
		Permit(TriggerCancel, StateCancelled)

	machine, err := builder.Build(initial)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return machine
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name      string
		initial   State
		trigger   Trigger
		wantState State
		wantErr   bool
	}{
		{
			name:      "submit from draft",
			initial:   StateDraft,
			trigger:   TriggerSubmit,
			wantState: StatePendingDeptHead,
		},
		{
			name:      "approve advances the chain",
			initial:   StatePendingDeptHead,
			trigger:   TriggerApprove,
			wantState: StatePendingHRStaff,
		},
		{
			name:      "approve at the last stage terminates",
			initial:   StatePendingHRStaff,
			trigger:   TriggerApprove,
			wantState: StateApproved,
		},
		{
			name:      "reject from a pending state",
			initial:   StatePendingDeptHead,
			trigger:   TriggerReject,
			wantState: StateRejected,
		},
		{
			name:      "return hands the document back",
			initial:   StatePendingDeptHead,
			trigger:   TriggerReturn,
			wantState: StateReturned,
		},
		{
			name:      "cancel from approved",
			initial:   StateApproved,
			trigger:   TriggerCancel,
			wantState: StateCancelled,
		},
		{
			name:    "approve from draft is invalid",
			initial: StateDraft,
			trigger: TriggerApprove,
			wantErr: true,
		},
		{
			name:    "submit while pending is invalid",
			initial: StatePendingDeptHead,
			trigger: TriggerSubmit,
			wantErr: true,
		},
		{
			name:    "nothing leaves rejected",
			initial: StateRejected,
			trigger: TriggerSubmit,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := buildLeaveChain(t, tt.initial)

			err := machine.Fire(context.Background(), tt.trigger)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Fire(%s) expected error, got state %s", tt.trigger, machine.State())
				}
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
				}
				if machine.State() != tt.initial {
					t.Errorf("state moved to %s on failed fire", machine.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("Fire(%s) error = %v", tt.trigger, err)
			}
			if machine.State() != tt.wantState {
				t.Errorf("State() = %s, want %s", machine.State(), tt.wantState)
			}
		})
	}
}

func TestStateMachineGuards(t *testing.T) {
	hasNext := true

	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerApprove, StatePending, func(context.Context) bool { return hasNext }).
		PermitIf(TriggerApprove, StateApproved, func(context.Context) bool { return !hasNext })

	machine, err := builder.Build(StatePending)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// First guard passes, the state loops on PENDING
	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if machine.State() != StatePending {
		t.Errorf("State() = %s, want %s", machine.State(), StatePending)
	}

	// Flip the guard: the same trigger now lands on APPROVED
	hasNext = false
	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State() = %s, want %s", machine.State(), StateApproved)
	}
}

func TestStateMachineGuardRejection(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(context.Context) bool { return false })

	machine, err := builder.Build(StatePending)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	err = machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if machine.State() != StatePending {
		t.Errorf("state moved to %s despite rejected guard", machine.State())
	}
}

func TestBuildRejectsUnknownStates(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(State("BOGUS")).Permit(TriggerSubmit, StatePending)

	if _, err := builder.Build(StateDraft); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Build() error = %v, want ErrConfiguration", err)
	}

	builder = NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerSubmit, State("BOGUS"))

	if _, err := builder.Build(StateDraft); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Build() error = %v, want ErrConfiguration", err)
	}

	builder = NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerSubmit, StatePending)

	if _, err := builder.Build(State("BOGUS")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Build() with unknown initial state error = %v, want ErrConfiguration", err)
	}
}

func TestCanFire(t *testing.T) {
	machine := buildLeaveChain(t, StatePendingDeptHead)

	if !machine.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) = false, want true")
	}
	if machine.CanFire(TriggerSubmit) {
		t.Error("CanFire(SUBMIT) = true, want false")
	}
}

func TestStateClassification(t *testing.T) {
	if !StatePendingDeptHead.IsPending() {
		t.Error("PENDING_DEPT_HEAD should be pending")
	}
	if StateDraft.IsPending() {
		t.Error("DRAFT should not be pending")
	}
	if !StateApproved.IsApprovedTerminal() || !StateCompleted.IsApprovedTerminal() {
		t.Error("APPROVED and COMPLETED should be approved-terminal")
	}
	if !StateRejected.IsTerminal() || !StateCancelled.IsTerminal() {
		t.Error("REJECTED and CANCELLED should be terminal")
	}
	if StateApproved.IsTerminal() {
		t.Error("APPROVED still permits cancel and should not be fully terminal")
	}
}
