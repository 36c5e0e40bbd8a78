package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryRun is one payroll cycle for a period
type SalaryRun struct {
	ID              int64           `json:"id"`
	TenantID        string          `json:"tenant_id"`
	Period          string          `json:"period"`
	Status          string          `json:"status"`
	TermID          *int64          `json:"term_id,omitempty"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalNet        decimal.Decimal `json:"total_net"`
	EmployerCost    decimal.Decimal `json:"employer_cost"`
	StaffCount      int             `json:"staff_count"`
	CreatedBy       *int64          `json:"created_by,omitempty"`
	PreparedBy      *int64          `json:"prepared_by,omitempty"`
	SubmittedBy     *int64          `json:"submitted_by,omitempty"`
	ApprovedBy      *int64          `json:"approved_by,omitempty"`
	FinalizedBy     *int64          `json:"finalized_by,omitempty"`
	PostedExpenseID *int64          `json:"posted_expense_id,omitempty"`
	FinalizedAt     *time.Time      `json:"finalized_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// AllowedActions is derived from the lifecycle on read, never stored
	AllowedActions []string `json:"allowed_actions"`
}

// IsPosted returns true once the run has been posted to the expense ledger
func (r *SalaryRun) IsPosted() bool {
	return r.PostedExpenseID != nil
}

// PostingAmount is the ledger amount for the run: net pay plus employer cost
func (r *SalaryRun) PostingAmount() decimal.Decimal {
	return r.TotalNet.Add(r.EmployerCost)
}

// RunTotals are the aggregates recomputed from a run's items
type RunTotals struct {
	TotalGross   decimal.Decimal `json:"total_gross"`
	TotalNet     decimal.Decimal `json:"total_net"`
	EmployerCost decimal.Decimal `json:"employer_cost"`
	StaffCount   int             `json:"staff_count"`
}

// IsZero returns true when every monetary total is zero
func (t RunTotals) IsZero() bool {
	return t.TotalGross.IsZero() && t.TotalNet.IsZero() && t.EmployerCost.IsZero()
}

// RunFilter narrows SalaryRun listings
type RunFilter struct {
	Status string
	Limit  int
	Offset int
}
