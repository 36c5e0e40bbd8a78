package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownEntry is one line of a salary item's component breakdown
type BreakdownEntry struct {
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	AutoAssigned bool            `json:"autoAssigned"`
}

// Breakdown maps a component display name to its computed line.
// It is a denormalized snapshot and survives catalog deletes.
type Breakdown map[string]BreakdownEntry

// SalaryItem is the computed pay breakdown for one staff member within one run.
// Items are immutable once the owning run is SUBMITTED.
type SalaryItem struct {
	ID              int64           `json:"id"`
	RunID           int64           `json:"run_id"`
	TenantID        string          `json:"tenant_id"`
	StaffID         int64           `json:"staff_id"`
	StaffName       string          `json:"staff_name"`
	Department      string          `json:"department"`
	Breakdown       Breakdown       `json:"breakdown"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TaxablePay      decimal.Decimal `json:"taxable_pay"`
	PAYE            decimal.Decimal `json:"paye"`
	NHIF            decimal.Decimal `json:"nhif"`
	NSSF            decimal.Decimal `json:"nssf"`
	OtherDeductions decimal.Decimal `json:"other_deductions"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
	EmployerContrib decimal.Decimal `json:"employer_contrib"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsNonZero reports whether the item carries any gross or net pay
func (i *SalaryItem) IsNonZero() bool {
	return !i.GrossPay.IsZero() || !i.NetPay.IsZero()
}
