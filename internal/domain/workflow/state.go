package workflow

// State is a salary run status in the approval lifecycle
type State string

const (
	StateDraft     State = "DRAFT"
	StatePrepared  State = "PREPARED"
	StateSubmitted State = "SUBMITTED"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StateFinalized State = "FINALIZED"
)

var validStates = map[State]bool{
	StateDraft:     true,
	StatePrepared:  true,
	StateSubmitted: true,
	StateApproved:  true,
	StateRejected:  true,
	StateFinalized: true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known run status
func (s State) IsValid() bool {
	return validStates[s]
}
