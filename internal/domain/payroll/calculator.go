package payroll

import (
	"fmt"
	"strings"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Calculator turns a resolved component set into a salary item
type Calculator struct {
	formulas *FormulaEvaluator
}

// NewCalculator creates a calculator. A nil evaluator rejects FORMULA components.
func NewCalculator(formulas *FormulaEvaluator) *Calculator {
	return &Calculator{formulas: formulas}
}

// Compute builds the unsaved salary item for one staff member. All sums are
// carried unrounded and rounded half-even at the end. NetPay is taken from the
// rounded gross and deductions so the persisted item always balances.
func (c *Calculator) Compute(staff *entity.Staff, department string, resolved []Resolved) (*entity.SalaryItem, error) {
	vars := baseVars(resolved)

	var gross, taxable, deductions, paye, nhif, nssf, other, employer decimal.Decimal
	breakdown := make(entity.Breakdown, len(resolved))

	for _, r := range resolved {
		if r.Component == nil {
			continue
		}
		amount, err := c.amountFor(r, vars)
		if err != nil {
			return nil, err
		}

		switch r.Component.Type {
		case entity.ComponentTypeBasic, entity.ComponentTypeAllowance:
			gross = gross.Add(amount)
			if r.Component.Taxable {
				taxable = taxable.Add(amount)
			}
		case entity.ComponentTypeDeduction:
			deductions = deductions.Add(amount)
			switch strings.ToUpper(strings.TrimSpace(r.Component.Code)) {
			case entity.DeductionCodePAYE:
				paye = paye.Add(amount)
			case entity.DeductionCodeNHIF:
				nhif = nhif.Add(amount)
			case entity.DeductionCodeNSSF:
				nssf = nssf.Add(amount)
			default:
				other = other.Add(amount)
			}
		case entity.ComponentTypeEmployerContribution:
			employer = employer.Add(amount)
		default:
			return nil, fmt.Errorf("%w: unknown component type %q", ErrValidation, r.Component.Type)
		}

		addToBreakdown(breakdown, r, amount)
	}

	for name, line := range breakdown {
		line.Amount = Round(line.Amount)
		breakdown[name] = line
	}

	grossPay, totalDeductions := Round(gross), Round(deductions)
	item := &entity.SalaryItem{
		Department:      department,
		Breakdown:       breakdown,
		GrossPay:        grossPay,
		TaxablePay:      Round(taxable),
		PAYE:            Round(paye),
		NHIF:            Round(nhif),
		NSSF:            Round(nssf),
		OtherDeductions: Round(other),
		TotalDeductions: totalDeductions,
		NetPay:          grossPay.Sub(totalDeductions),
		EmployerContrib: Round(employer),
	}
	if staff != nil {
		item.StaffID = staff.ID
		item.TenantID = staff.TenantID
		item.StaffName = staff.Name
	}
	return item, nil
}

// Keep reports whether a computed item should be persisted: items with
// neither positive gross nor positive net are discarded.
func Keep(item *entity.SalaryItem) bool {
	return item.GrossPay.IsPositive() || item.NetPay.IsPositive()
}

// Totals aggregates persisted items into run totals
func Totals(items []*entity.SalaryItem) entity.RunTotals {
	gross := make([]decimal.Decimal, 0, len(items))
	net := make([]decimal.Decimal, 0, len(items))
	employer := make([]decimal.Decimal, 0, len(items))
	var t entity.RunTotals
	for _, item := range items {
		gross = append(gross, item.GrossPay)
		net = append(net, item.NetPay)
		employer = append(employer, item.EmployerContrib)
		if item.IsNonZero() {
			t.StaffCount++
		}
	}
	t.TotalGross = Round(Sum(gross...))
	t.TotalNet = Round(Sum(net...))
	t.EmployerCost = Round(Sum(employer...))
	return t
}

func (c *Calculator) amountFor(r Resolved, vars FormulaVars) (decimal.Decimal, error) {
	if r.Component.ComputeMethod != entity.ComputeMethodFormula {
		return r.Amount, nil
	}
	if c.formulas == nil {
		return decimal.Zero, fmt.Errorf("%w: no evaluator for %s", ErrFormula, r.Component.Code)
	}
	vars.Amount = r.Amount
	amount, err := c.formulas.Evaluate(r.Component.Formula, vars)
	if err != nil {
		return decimal.Zero, fmt.Errorf("component %s: %w", r.Component.Code, err)
	}
	return amount, nil
}

// baseVars sums the non-formula earnings that formulas may reference
func baseVars(resolved []Resolved) FormulaVars {
	var vars FormulaVars
	for _, r := range resolved {
		if r.Component == nil || r.Component.ComputeMethod == entity.ComputeMethodFormula {
			continue
		}
		switch r.Component.Type {
		case entity.ComponentTypeBasic:
			vars.Basic = vars.Basic.Add(r.Amount)
			vars.Gross = vars.Gross.Add(r.Amount)
		case entity.ComponentTypeAllowance:
			vars.Gross = vars.Gross.Add(r.Amount)
		}
	}
	return vars
}

// addToBreakdown keys lines by display name. Repeated names of the same type
// are merged; a name reused across types gets the type appended.
func addToBreakdown(b entity.Breakdown, r Resolved, amount decimal.Decimal) {
	key := r.Component.Name
	if existing, ok := b[key]; ok && existing.Type != r.Component.Type {
		key = fmt.Sprintf("%s (%s)", r.Component.Name, r.Component.Type)
	}
	line, ok := b[key]
	if !ok {
		b[key] = entity.BreakdownEntry{Amount: amount, Type: r.Component.Type, AutoAssigned: r.AutoAssigned}
		return
	}
	line.Amount = line.Amount.Add(amount)
	line.AutoAssigned = line.AutoAssigned && r.AutoAssigned
	b[key] = line
}
