package workflow

// State represents a document state in the approval lifecycle
type State string

const (
	StateDraft State = "DRAFT"

	// Legacy leave application pending stages
	StatePendingSubstitute     State = "PENDING_SUBSTITUTE"
	StatePendingDeptHead       State = "PENDING_DEPT_HEAD"
	StatePendingHRStaff        State = "PENDING_HR_STAFF"
	StatePendingCenterDirector State = "PENDING_CENTER_DIRECTOR"
	StatePendingHRFinal        State = "PENDING_HR_FINAL"
	StatePendingAdminDirector  State = "PENDING_ADMIN_DIRECTOR"
	StatePendingCEODirector    State = "PENDING_CEO_DIRECTOR"

	// Legacy employment contract pending stage
	StateSentToEmployee State = "SENT_TO_EMPLOYEE"

	// Approval-line routing uses a single generic pending state paired with
	// the document's current step order.
	StatePending State = "PENDING"

	StateApproved  State = "APPROVED"
	StateCompleted State = "COMPLETED"
	StateRejected  State = "REJECTED"
	StateReturned  State = "RETURNED"
	StateCancelled State = "CANCELLED"
)

var validStates = map[State]bool{
	StateDraft:                 true,
	StatePendingSubstitute:     true,
	StatePendingDeptHead:       true,
	StatePendingHRStaff:        true,
	StatePendingCenterDirector: true,
	StatePendingHRFinal:        true,
	StatePendingAdminDirector:  true,
	StatePendingCEODirector:    true,
	StateSentToEmployee:        true,
	StatePending:               true,
	StateApproved:              true,
	StateCompleted:             true,
	StateRejected:              true,
	StateReturned:              true,
	StateCancelled:             true,
}

var pendingStates = map[State]bool{
	StatePendingSubstitute:     true,
	StatePendingDeptHead:       true,
	StatePendingHRStaff:        true,
	StatePendingCenterDirector: true,
	StatePendingHRFinal:        true,
	StatePendingAdminDirector:  true,
	StatePendingCEODirector:    true,
	StateSentToEmployee:        true,
	StatePending:               true,
}

// APPROVED and COMPLETED permit the explicit cancel transition and REJECTED
// permits nothing; CANCELLED is fully terminal.
var terminalStates = map[State]bool{
	StateRejected:  true,
	StateCancelled: true,
}

// IsValid returns true if the state is a valid document state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsPending returns true if the state awaits an approver's decision
func (s State) IsPending() bool {
	return pendingStates[s]
}

// IsApprovedTerminal returns true for the approved end states of either
// document type
func (s State) IsApprovedTerminal() bool {
	return s == StateApproved || s == StateCompleted
}

// IsTerminal returns true if no transition at all leaves the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
