package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
)

// StaffResolution pairs a staff member with the components that apply to them
type StaffResolution struct {
	Staff      *entity.Staff       `json:"staff"`
	Resolution *payroll.Resolution `json:"resolution"`
}

// Preview is a resolution plus the breakdown it would produce, without persisting anything
type Preview struct {
	StaffResolution
	Item *entity.SalaryItem `json:"item"`
	Kept bool               `json:"kept"`
}

// ResolverService loads the data the resolver needs and runs it over a staff scope
type ResolverService interface {
	// ResolveScope resolves every staff member in scope for period. Explicit
	// ids must all be known, active staff of the tenant.
	ResolveScope(ctx context.Context, tenantID string, scope payroll.StaffScope, period string) ([]*StaffResolution, error)

	// ComputeScope resolves and computes the scope, dropping items that would not be persisted
	ComputeScope(ctx context.Context, tenantID string, scope payroll.StaffScope, period string) ([]*entity.SalaryItem, error)

	// Preview resolves and computes one staff member
	Preview(ctx context.Context, tenantID string, staffID int64, period string) (*Preview, error)
}

type resolverServiceImpl struct {
	components  port.ComponentRepository
	assignments port.AssignmentRepository
	staff       port.StaffDirectory
	resolver    *payroll.Resolver
	calculator  *payroll.Calculator
	logger      Logger
}

// NewResolverService creates a new ResolverService
func NewResolverService(
	components port.ComponentRepository,
	assignments port.AssignmentRepository,
	staff port.StaffDirectory,
	resolver *payroll.Resolver,
	calculator *payroll.Calculator,
	logger Logger,
) ResolverService {
	if resolver == nil {
		resolver = payroll.NewResolver()
	}
	return &resolverServiceImpl{
		components:  components,
		assignments: assignments,
		staff:       staff,
		resolver:    resolver,
		calculator:  calculator,
		logger:      orNop(logger),
	}
}

// ResolveScope is the single resolution entry point for both explicit and tenant-wide scopes
func (s *resolverServiceImpl) ResolveScope(ctx context.Context, tenantID string, scope payroll.StaffScope, period string) ([]*StaffResolution, error) {
	start, end, ok := payroll.ParsePeriod(period)
	if !ok {
		return nil, fmt.Errorf("%w: period %q must be YYYY-MM", payroll.ErrValidation, period)
	}

	staff, err := s.loadScope(ctx, tenantID, scope)
	if err != nil {
		return nil, err
	}

	autos, err := s.components.ListAutoAssign(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-assign components: %w", err)
	}

	results := make([]*StaffResolution, 0, len(staff))
	for _, member := range staff {
		assignments, err := s.effectiveAssignments(ctx, tenantID, member.ID, start, end)
		if err != nil {
			return nil, err
		}
		res := s.resolver.Resolve(payroll.Input{
			Staff:          member,
			Department:     payroll.DeriveDepartment(member),
			Assignments:    assignments,
			AutoComponents: autos,
		})
		results = append(results, &StaffResolution{Staff: member, Resolution: res})
	}

	s.logger.Info("Scope resolved",
		"tenant_id", tenantID,
		"scope", scope.String(),
		"period", period,
		"staff_count", len(results),
	)
	return results, nil
}

// ComputeScope resolves the scope and computes one item per staff member
func (s *resolverServiceImpl) ComputeScope(ctx context.Context, tenantID string, scope payroll.StaffScope, period string) ([]*entity.SalaryItem, error) {
	resolutions, err := s.ResolveScope(ctx, tenantID, scope, period)
	if err != nil {
		return nil, err
	}

	items := make([]*entity.SalaryItem, 0, len(resolutions))
	for _, r := range resolutions {
		item, err := s.calculator.Compute(r.Staff, r.Resolution.Department, r.Resolution.Components)
		if err != nil {
			return nil, fmt.Errorf("failed to compute pay for staff %d: %w", r.Staff.ID, err)
		}
		if !payroll.Keep(item) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Preview resolves and computes a single staff member for period
func (s *resolverServiceImpl) Preview(ctx context.Context, tenantID string, staffID int64, period string) (*Preview, error) {
	resolutions, err := s.ResolveScope(ctx, tenantID, payroll.ScopeStaffIDs(staffID), period)
	if err != nil {
		return nil, err
	}
	r := resolutions[0]

	item, err := s.calculator.Compute(r.Staff, r.Resolution.Department, r.Resolution.Components)
	if err != nil {
		return nil, err
	}
	return &Preview{StaffResolution: *r, Item: item, Kept: payroll.Keep(item)}, nil
}

func (s *resolverServiceImpl) loadScope(ctx context.Context, tenantID string, scope payroll.StaffScope) ([]*entity.Staff, error) {
	ids := scope.IDs()
	if scope.IsAllActive() {
		var err error
		ids, err = s.assignments.ListActiveStaffIDs(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to list staff with active assignments: %w", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}
	} else if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one staff member is required", payroll.ErrValidation)
	}

	found, err := s.staff.GetStaff(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}

	byID := make(map[int64]*entity.Staff, len(found))
	for _, member := range found {
		if member.TenantID == tenantID {
			byID[member.ID] = member
		}
	}

	staff := make([]*entity.Staff, 0, len(ids))
	var invalid []int64
	for _, id := range ids {
		member, ok := byID[id]
		if !ok || !member.IsActive {
			invalid = append(invalid, id)
			continue
		}
		staff = append(staff, member)
	}

	// the tenant-wide scope silently skips inactive staff
	if len(invalid) > 0 && !scope.IsAllActive() {
		return nil, fmt.Errorf("%w: unknown or inactive staff %v", payroll.ErrValidation, invalid)
	}

	sort.SliceStable(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff, nil
}

func (s *resolverServiceImpl) effectiveAssignments(ctx context.Context, tenantID string, staffID int64, start, end time.Time) ([]*entity.StaffPayAssignment, error) {
	all, err := s.assignments.ListByStaff(ctx, tenantID, staffID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for staff %d: %w", staffID, err)
	}
	effective := make([]*entity.StaffPayAssignment, 0, len(all))
	for _, a := range all {
		if a.EffectiveIn(start, end) {
			effective = append(effective, a)
		}
	}
	return effective, nil
}
