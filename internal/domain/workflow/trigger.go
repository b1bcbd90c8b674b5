package workflow

// Trigger represents an intent that can cause a state transition
type Trigger string

const (
	TriggerSubmit       Trigger = "SUBMIT"
	TriggerApprove      Trigger = "APPROVE"
	TriggerFinalApprove Trigger = "FINAL_APPROVE"
	TriggerReject       Trigger = "REJECT"
	TriggerReturn       Trigger = "RETURN"
	TriggerCancel       Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
