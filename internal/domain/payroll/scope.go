package payroll

import "fmt"

// StaffScope selects which staff members a resolution covers
type StaffScope struct {
	allActive bool
	ids       []int64
}

// ScopeStaffIDs covers exactly the given staff ids, in order, without duplicates
func ScopeStaffIDs(ids ...int64) StaffScope {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return StaffScope{ids: unique}
}

// ScopeAllActive covers every active staff member holding at least one
// active assignment in the tenant
func ScopeAllActive() StaffScope {
	return StaffScope{allActive: true}
}

// IsAllActive reports whether the scope is tenant-wide
func (s StaffScope) IsAllActive() bool {
	return s.allActive
}

// IDs returns the explicit staff ids; empty for ScopeAllActive
func (s StaffScope) IDs() []int64 {
	return s.ids
}

func (s StaffScope) String() string {
	if s.allActive {
		return "all-active"
	}
	return fmt.Sprintf("staff%v", s.ids)
}
