package service

import (
	"testing"
	"time"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverService_ManualBeatsSystemAuto(t *testing.T) {
	h := newHarness(t)
	h.addStaff(1, "A", entity.RoleTeacher, true)
	manualBasic := h.addComponent(t, entity.PayComponent{Name: "Basic Salary", Code: "BASIC_MANUAL", Type: "BASIC", Taxable: true})
	h.addComponent(t, entity.PayComponent{Name: "basic salary", Code: "BASIC_AUTO", Type: "BASIC", DefaultAmount: dec("500"), AutoAssign: true})
	h.grant(t, 1, manualBasic, "1000")

	preview, err := h.resolver.Preview(ctxBG, tenant, 1, "2025-03")
	require.NoError(t, err)

	require.Len(t, preview.Resolution.Components, 1)
	assert.Equal(t, payroll.StrategyManual, preview.Resolution.Components[0].Strategy)
	assert.True(t, dec("1000").Equal(preview.Item.GrossPay))
	assert.True(t, preview.Kept)
}

func TestResolverService_DepartmentOverride(t *testing.T) {
	h := newHarness(t)
	h.addStaff(1, "Teacher", entity.RoleTeacher, true)
	h.addStaff(2, "Clerk", entity.RoleAdmin, true)
	h.addComponent(t, entity.PayComponent{Name: "Housing", Type: "ALLOWANCE", DefaultAmount: dec("200"), AutoAssign: true})
	h.addComponent(t, entity.PayComponent{Name: "Housing", Type: "ALLOWANCE", Department: "Teaching", DefaultAmount: dec("350"), AutoAssign: true})

	resolutions, err := h.resolver.ResolveScope(ctxBG, tenant, payroll.ScopeStaffIDs(2, 1), "2025-03")
	require.NoError(t, err)
	require.Len(t, resolutions, 2)

	teacher, clerk := resolutions[0], resolutions[1]
	require.Len(t, teacher.Resolution.Components, 1)
	assert.True(t, dec("350").Equal(teacher.Resolution.Components[0].Amount))
	assert.Equal(t, payroll.StrategyDepartmentAuto, teacher.Resolution.Components[0].Strategy)

	require.Len(t, clerk.Resolution.Components, 1)
	assert.True(t, dec("200").Equal(clerk.Resolution.Components[0].Amount))
	assert.Equal(t, entity.DepartmentAdministration, clerk.Resolution.Department)
}

func TestResolverService_EffectiveDates(t *testing.T) {
	h := newHarness(t)
	h.addStaff(1, "A", entity.RoleTeacher, true)
	basic := h.addComponent(t, basicComponent("Basic"))
	bonus := h.addComponent(t, entity.PayComponent{Name: "Bonus", Type: "ALLOWANCE"})
	h.grant(t, 1, basic, "1000")

	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := h.assign.Create(ctxBG, tenant, nil, &entity.StaffPayAssignment{
		StaffID: 1, ComponentID: bonus.ID, Amount: dec("100"), EffectiveFrom: &from,
	})
	require.NoError(t, err)

	march, err := h.resolver.Preview(ctxBG, tenant, 1, "2025-03")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(march.Item.GrossPay))

	april, err := h.resolver.Preview(ctxBG, tenant, 1, "2025-04")
	require.NoError(t, err)
	assert.True(t, dec("1100").Equal(april.Item.GrossPay))
}

func TestResolverService_AllActiveScope(t *testing.T) {
	h := newHarness(t)
	h.addStaff(1, "A", entity.RoleTeacher, true)
	h.addStaff(2, "Gone", entity.RoleTeacher, false)
	h.addStaff(3, "No assignments", entity.RoleTeacher, true)
	basic := h.addComponent(t, basicComponent("Basic"))
	h.grant(t, 1, basic, "1000")

	h.db.mu.Lock()
	h.db.assignments[999] = entity.StaffPayAssignment{ID: 999, TenantID: tenant, StaffID: 2, ComponentID: basic.ID, Amount: dec("1"), IsActive: true}
	h.db.mu.Unlock()

	resolutions, err := h.resolver.ResolveScope(ctxBG, tenant, payroll.ScopeAllActive(), "2025-03")
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, int64(1), resolutions[0].Staff.ID)
}

func TestResolverService_ComputeScopeDropsEmptyItems(t *testing.T) {
	h := newHarness(t)
	h.addStaff(1, "A", entity.RoleTeacher, true)
	h.addStaff(2, "B", entity.RoleLibrarian, true)
	basic := h.addComponent(t, basicComponent("Basic"))
	h.grant(t, 1, basic, "1000")

	items, err := h.resolver.ComputeScope(ctxBG, tenant, payroll.ScopeStaffIDs(1, 2), "2025-03")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].StaffID)

	_, err = h.resolver.Preview(ctxBG, tenant, 1, "2025/03")
	assert.ErrorIs(t, err, payroll.ErrValidation)
}
