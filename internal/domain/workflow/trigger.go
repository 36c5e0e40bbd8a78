package workflow

// Trigger is a lifecycle operation that can move a run between states
type Trigger string

const (
	TriggerPrepare  Trigger = "PREPARE"
	TriggerSubmit   Trigger = "SUBMIT"
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
	TriggerFinalize Trigger = "FINALIZE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
