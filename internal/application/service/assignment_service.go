package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
)

// AssignmentService manages manual per-staff component assignments
type AssignmentService interface {
	Create(ctx context.Context, tenantID string, actorID *int64, a *entity.StaffPayAssignment) (*entity.StaffPayAssignment, error)
	Update(ctx context.Context, tenantID string, actorID *int64, id int64, patch entity.AssignmentPatch) (*entity.StaffPayAssignment, error)
	Delete(ctx context.Context, tenantID string, actorID *int64, id int64) error
	ListByStaff(ctx context.Context, tenantID string, staffID int64) ([]*entity.StaffPayAssignment, error)
}

type assignmentServiceImpl struct {
	assignments port.AssignmentRepository
	components  port.ComponentRepository
	staff       port.StaffDirectory
	events      port.EventPublisher
	logger      Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignments port.AssignmentRepository,
	components port.ComponentRepository,
	staff port.StaffDirectory,
	events port.EventPublisher,
	logger Logger,
) AssignmentService {
	return &assignmentServiceImpl{
		assignments: assignments,
		components:  components,
		staff:       staff,
		events:      events,
		logger:      orNop(logger),
	}
}

// Create grants a component to a staff member. New assignments start active.
func (s *assignmentServiceImpl) Create(ctx context.Context, tenantID string, actorID *int64, in *entity.StaffPayAssignment) (*entity.StaffPayAssignment, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: assignment is required", payroll.ErrValidation)
	}
	a := *in
	a.ID = 0
	a.TenantID = tenantID
	a.IsActive = true

	if err := s.checkStaff(ctx, tenantID, a.StaffID); err != nil {
		return nil, err
	}
	component, err := s.components.GetByID(ctx, tenantID, a.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	if component == nil {
		return nil, fmt.Errorf("%w: component %d does not exist", payroll.ErrValidation, a.ComponentID)
	}
	if err := validateAssignment(&a); err != nil {
		return nil, err
	}

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.assignments.Create(ctx, &a); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	a.Component = component

	s.logger.Info("Assignment created", "tenant_id", tenantID, "id", a.ID, "staff_id", a.StaffID, "component_id", a.ComponentID)
	publish(ctx, s.events, assignmentEvent(event.TypeAssignmentCreated, &a, actorID))
	return &a, nil
}

// Update applies a partial update to an assignment
func (s *assignmentServiceImpl) Update(ctx context.Context, tenantID string, actorID *int64, id int64, patch entity.AssignmentPatch) (*entity.StaffPayAssignment, error) {
	a, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(a)
	if err := validateAssignment(a); err != nil {
		return nil, err
	}

	a.UpdatedAt = time.Now()
	if err := s.assignments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info("Assignment updated", "tenant_id", tenantID, "id", a.ID, "active", a.IsActive)
	publish(ctx, s.events, assignmentEvent(event.TypeAssignmentUpdated, a, actorID))
	return a, nil
}

// Delete removes an assignment
func (s *assignmentServiceImpl) Delete(ctx context.Context, tenantID string, actorID *int64, id int64) error {
	a, err := s.get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.logger.Info("Assignment deleted", "tenant_id", tenantID, "id", id)
	publish(ctx, s.events, assignmentEvent(event.TypeAssignmentDeleted, a, actorID))
	return nil
}

// ListByStaff returns every assignment of a staff member, active or not
func (s *assignmentServiceImpl) ListByStaff(ctx context.Context, tenantID string, staffID int64) ([]*entity.StaffPayAssignment, error) {
	list, err := s.assignments.ListByStaff(ctx, tenantID, staffID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

func (s *assignmentServiceImpl) get(ctx context.Context, tenantID string, id int64) (*entity.StaffPayAssignment, error) {
	a, err := s.assignments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("assignment %d: %w", id, payroll.ErrNotFound)
	}
	return a, nil
}

func (s *assignmentServiceImpl) checkStaff(ctx context.Context, tenantID string, staffID int64) error {
	found, err := s.staff.GetStaff(ctx, tenantID, []int64{staffID})
	if err != nil {
		return fmt.Errorf("failed to load staff: %w", err)
	}
	if len(found) == 0 {
		return fmt.Errorf("%w: staff %d does not exist", payroll.ErrValidation, staffID)
	}
	return nil
}

func validateAssignment(a *entity.StaffPayAssignment) error {
	if a.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", payroll.ErrValidation)
	}
	if a.EffectiveFrom != nil && a.EffectiveTo != nil && a.EffectiveTo.Before(*a.EffectiveFrom) {
		return fmt.Errorf("%w: effective_to is before effective_from", payroll.ErrValidation)
	}
	return nil
}

func assignmentEvent(t event.Type, a *entity.StaffPayAssignment, actorID *int64) *event.Event {
	return event.NewEvent(t, a.TenantID, entity.AuditEntityAssignment, a.ID, actorID, map[string]interface{}{
		"staff_id":     a.StaffID,
		"component_id": a.ComponentID,
		"amount":       a.Amount.String(),
	})
}
