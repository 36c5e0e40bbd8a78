package payroll

import "errors"

// Sentinel errors returned by the payroll core. Callers wrap them with
// context using fmt.Errorf("...: %w", err) and classify with errors.Is.
var (
	// ErrValidation marks client-caused failures such as a malformed period
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a tenant-scoped entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict covers duplicates and lost compare-and-set races
	ErrConflict = errors.New("conflict")

	// ErrZeroTotals is returned when a run would be persisted with all-zero totals
	ErrZeroTotals = errors.New("payroll totals are zero")

	// ErrFormula is returned when a FORMULA component cannot be compiled or evaluated
	ErrFormula = errors.New("formula evaluation failed")
)
