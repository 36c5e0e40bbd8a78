package payroll

import (
	"strings"

	"github.com/garyjia/school-payroll/internal/domain/entity"
)

// DeriveDepartment maps a staff member's role (and, for finance staff, the
// profile department) onto the department used for auto-assignment scoping.
func DeriveDepartment(s *entity.Staff) string {
	if s == nil {
		return entity.DepartmentGeneral
	}
	switch strings.ToLower(strings.TrimSpace(s.Role)) {
	case entity.RoleTeacher:
		return entity.DepartmentTeaching
	case entity.RoleFinance:
		if d := strings.TrimSpace(s.ProfileDepartment); d != "" {
			return d
		}
		return entity.DepartmentFinance
	case entity.RoleAdmin:
		return entity.DepartmentAdministration
	case entity.RoleLibrarian:
		return entity.DepartmentLibrary
	default:
		return entity.DepartmentGeneral
	}
}

// SameDepartment compares department names case-insensitively
func SameDepartment(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
