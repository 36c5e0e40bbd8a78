package event

// Type identifies the type of domain event
type Type string

const (
	TypeRunCreated   Type = "run.created"
	TypeRunPrepared  Type = "run.prepared"
	TypeRunSubmitted Type = "run.submitted"
	TypeRunApproved  Type = "run.approved"
	TypeRunRejected  Type = "run.rejected"
	TypeRunFinalized Type = "run.finalized"
	TypeRunDeleted   Type = "run.deleted"

	TypeComponentCreated Type = "component.created"
	TypeComponentUpdated Type = "component.updated"
	TypeComponentDeleted Type = "component.deleted"

	TypeAssignmentCreated Type = "assignment.created"
	TypeAssignmentUpdated Type = "assignment.updated"
	TypeAssignmentDeleted Type = "assignment.deleted"
)

// AllTypes lists every event type, in declaration order
var AllTypes = []Type{
	TypeRunCreated,
	TypeRunPrepared,
	TypeRunSubmitted,
	TypeRunApproved,
	TypeRunRejected,
	TypeRunFinalized,
	TypeRunDeleted,
	TypeComponentCreated,
	TypeComponentUpdated,
	TypeComponentDeleted,
	TypeAssignmentCreated,
	TypeAssignmentUpdated,
	TypeAssignmentDeleted,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsRunTransition returns true for events emitted by the run lifecycle
func (t Type) IsRunTransition() bool {
	switch t {
	case TypeRunCreated, TypeRunPrepared, TypeRunSubmitted, TypeRunApproved,
		TypeRunRejected, TypeRunFinalized, TypeRunDeleted:
		return true
	default:
		return false
	}
}
