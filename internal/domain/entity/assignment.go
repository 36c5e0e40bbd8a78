package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffPayAssignment is an explicit, manually granted component for one staff member.
type StaffPayAssignment struct {
	ID            int64           `json:"id"`
	TenantID      string          `json:"tenant_id"`
	StaffID       int64           `json:"staff_id"`
	ComponentID   int64           `json:"component_id"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom *time.Time      `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Component is populated by repository reads that join the catalog
	Component *PayComponent `json:"component,omitempty"`
}

// EffectiveIn reports whether the assignment is active and its date range
// overlaps [start, end). Open-ended bounds always match.
func (a *StaffPayAssignment) EffectiveIn(start, end time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.EffectiveFrom != nil && !a.EffectiveFrom.Before(end) {
		return false
	}
	if a.EffectiveTo != nil && a.EffectiveTo.Before(start) {
		return false
	}
	return true
}

// AssignmentPatch carries a partial update of an assignment
type AssignmentPatch struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	EffectiveFrom *time.Time       `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// Apply copies the non-nil fields of the patch onto a
func (p AssignmentPatch) Apply(a *StaffPayAssignment) {
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.EffectiveFrom != nil {
		a.EffectiveFrom = p.EffectiveFrom
	}
	if p.EffectiveTo != nil {
		a.EffectiveTo = p.EffectiveTo
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}
