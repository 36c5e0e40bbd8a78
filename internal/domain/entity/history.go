package entity

import "time"

// PayrollApprovalHistory is one append-only entry in a run's audit trail.
// A nil ActorID means the transition was made by the system.
type PayrollApprovalHistory struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	TenantID  string    `json:"tenant_id"`
	Action    string    `json:"action"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogEntry is a row of the generic, cross-entity audit log
type AuditLogEntry struct {
	ID         int64     `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
