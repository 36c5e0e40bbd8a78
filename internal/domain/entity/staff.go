package entity

import "github.com/shopspring/decimal"

// Staff is the read model the payroll engine consumes from the staff directory
type Staff struct {
	ID                int64  `json:"id"`
	TenantID          string `json:"tenant_id"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	IsActive          bool   `json:"is_active"`
	ProfileDepartment string `json:"profile_department,omitempty"`
}

// Expense is the approved ledger entry created when a run is finalized
type Expense struct {
	ID          int64           `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Status      string          `json:"status"`
	ExpenseDate string          `json:"expense_date"`
	ApprovedBy  *int64          `json:"approved_by,omitempty"`
}
