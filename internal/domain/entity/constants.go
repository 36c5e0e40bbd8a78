package entity

// Component type constants for PayComponent
const (
	ComponentTypeBasic                = "BASIC"
	ComponentTypeAllowance            = "ALLOWANCE"
	ComponentTypeDeduction            = "DEDUCTION"
	ComponentTypeEmployerContribution = "EMPLOYER_CONTRIBUTION"
)

// Compute method constants for PayComponent
const (
	ComputeMethodFixed   = "FIXED"
	ComputeMethodFormula = "FORMULA"
	ComputeMethodTable   = "TABLE" // statutory tables are configured as plain amounts
)

// Status constants for SalaryRun
const (
	RunStatusDraft     = "DRAFT"
	RunStatusPrepared  = "PREPARED"
	RunStatusSubmitted = "SUBMITTED"
	RunStatusApproved  = "APPROVED"
	RunStatusRejected  = "REJECTED"
	RunStatusFinalized = "FINALIZED"
)

// History action constants for PayrollApprovalHistory
const (
	ActionCreated   = "CREATED"
	ActionPrepared  = "PREPARED"
	ActionSubmitted = "SUBMITTED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
	ActionFinalized = "FINALIZED"
	ActionDeleted   = "DELETED"
)

// Staff role constants, as reported by the staff directory
const (
	RoleTeacher   = "teacher"
	RoleFinance   = "finance"
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
)

// Department names derived from staff roles
const (
	DepartmentTeaching       = "Teaching"
	DepartmentFinance        = "Finance"
	DepartmentAdministration = "Administration"
	DepartmentLibrary        = "Library"
	DepartmentGeneral        = "General"
)

// Statutory deduction codes. Amounts are configured like any other
// deduction; they only get their own sub-total on the salary item.
const (
	DeductionCodePAYE = "PAYE"
	DeductionCodeNHIF = "NHIF"
	DeductionCodeNSSF = "NSSF"
)

// Expense ledger constants
const (
	ExpenseCategoryPersonnel = "PERSONNEL"
	ExpenseStatusApproved    = "APPROVED"
)

// Audit log entity types
const (
	AuditEntitySalaryRun    = "salary_run"
	AuditEntityPayComponent = "pay_component"
	AuditEntityAssignment   = "staff_pay_assignment"
)

// IsValidComponentType reports whether t is a known component type
func IsValidComponentType(t string) bool {
	switch t {
	case ComponentTypeBasic, ComponentTypeAllowance, ComponentTypeDeduction, ComponentTypeEmployerContribution:
		return true
	}
	return false
}

// IsValidComputeMethod reports whether m is a known compute method
func IsValidComputeMethod(m string) bool {
	switch m {
	case ComputeMethodFixed, ComputeMethodFormula, ComputeMethodTable:
		return true
	}
	return false
}
