package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
)

// CatalogService manages pay component definitions
type CatalogService interface {
	Create(ctx context.Context, tenantID string, actorID *int64, def *entity.PayComponent) (*entity.PayComponent, error)
	Update(ctx context.Context, tenantID string, actorID *int64, id int64, patch entity.ComponentPatch) (*entity.PayComponent, error)
	Delete(ctx context.Context, tenantID string, actorID *int64, id int64) error
	Get(ctx context.Context, tenantID string, id int64) (*entity.PayComponent, error)
	List(ctx context.Context, tenantID string, filter entity.ComponentFilter) ([]*entity.PayComponent, error)
}

type catalogServiceImpl struct {
	components port.ComponentRepository
	formulas   *payroll.FormulaEvaluator
	events     port.EventPublisher
	logger     Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	components port.ComponentRepository,
	formulas *payroll.FormulaEvaluator,
	events port.EventPublisher,
	logger Logger,
) CatalogService {
	return &catalogServiceImpl{
		components: components,
		formulas:   formulas,
		events:     events,
		logger:     orNop(logger),
	}
}

// Create validates and stores a new component, deriving its code when empty
func (s *catalogServiceImpl) Create(ctx context.Context, tenantID string, actorID *int64, def *entity.PayComponent) (*entity.PayComponent, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: component definition is required", payroll.ErrValidation)
	}
	c := *def
	c.ID = 0
	c.TenantID = tenantID
	if err := s.normalize(&c); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, tenantID, c.Code, 0); err != nil {
		return nil, err
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.components.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to create component: %w", err)
	}

	s.logger.Info("Pay component created", "tenant_id", tenantID, "id", c.ID, "code", c.Code)
	publish(ctx, s.events, componentEvent(event.TypeComponentCreated, &c, actorID))
	return &c, nil
}

// Update applies a partial update; code uniqueness is re-checked
func (s *catalogServiceImpl) Update(ctx context.Context, tenantID string, actorID *int64, id int64, patch entity.ComponentPatch) (*entity.PayComponent, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	// a blank code in the patch re-derives it from the patched name
	patch.Apply(c)
	if err := s.normalize(c); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, tenantID, c.Code, c.ID); err != nil {
		return nil, err
	}

	c.UpdatedAt = time.Now()
	if err := s.components.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update component: %w", err)
	}

	s.logger.Info("Pay component updated", "tenant_id", tenantID, "id", c.ID, "code", c.Code)
	publish(ctx, s.events, componentEvent(event.TypeComponentUpdated, c, actorID))
	return c, nil
}

// Delete removes a component and its assignments. Breakdown snapshots on
// existing salary items are not touched.
func (s *catalogServiceImpl) Delete(ctx context.Context, tenantID string, actorID *int64, id int64) error {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.components.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}

	s.logger.Info("Pay component deleted", "tenant_id", tenantID, "id", id, "code", c.Code)
	publish(ctx, s.events, componentEvent(event.TypeComponentDeleted, c, actorID))
	return nil
}

// Get retrieves a component by ID
func (s *catalogServiceImpl) Get(ctx context.Context, tenantID string, id int64) (*entity.PayComponent, error) {
	c, err := s.components.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("component %d: %w", id, payroll.ErrNotFound)
	}
	return c, nil
}

// List returns the tenant's components matching filter
func (s *catalogServiceImpl) List(ctx context.Context, tenantID string, filter entity.ComponentFilter) ([]*entity.PayComponent, error) {
	filter.Type = strings.ToUpper(strings.TrimSpace(filter.Type))
	components, err := s.components.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	return components, nil
}

func (s *catalogServiceImpl) normalize(c *entity.PayComponent) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Department = strings.TrimSpace(c.Department)
	c.Type = strings.ToUpper(strings.TrimSpace(c.Type))
	c.ComputeMethod = strings.ToUpper(strings.TrimSpace(c.ComputeMethod))
	c.Formula = strings.TrimSpace(c.Formula)
	if c.ComputeMethod == "" {
		c.ComputeMethod = entity.ComputeMethodFixed
	}

	if c.Name == "" {
		return fmt.Errorf("%w: component name is required", payroll.ErrValidation)
	}
	if !entity.IsValidComponentType(c.Type) {
		return fmt.Errorf("%w: unknown component type %q", payroll.ErrValidation, c.Type)
	}
	if !entity.IsValidComputeMethod(c.ComputeMethod) {
		return fmt.Errorf("%w: unknown compute method %q", payroll.ErrValidation, c.ComputeMethod)
	}
	if c.DefaultAmount.IsNegative() {
		return fmt.Errorf("%w: default amount must not be negative", payroll.ErrValidation)
	}
	if c.ComputeMethod == entity.ComputeMethodFormula {
		if c.Formula == "" {
			return fmt.Errorf("%w: formula is required for FORMULA components", payroll.ErrValidation)
		}
		if s.formulas == nil {
			return fmt.Errorf("%w: formulas are not supported", payroll.ErrFormula)
		}
		if _, err := s.formulas.Compile(c.Formula); err != nil {
			return err
		}
	}

	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		c.Code = payroll.DeriveCode(c.Name, c.Department)
	}
	if c.Code == "" {
		return fmt.Errorf("%w: cannot derive a code from name %q", payroll.ErrValidation, c.Name)
	}
	return nil
}

func (s *catalogServiceImpl) ensureCodeFree(ctx context.Context, tenantID, code string, selfID int64) error {
	existing, err := s.components.GetByCode(ctx, tenantID, code)
	if err != nil {
		return fmt.Errorf("failed to check component code: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("component code %s already exists: %w", code, payroll.ErrConflict)
	}
	return nil
}

func componentEvent(t event.Type, c *entity.PayComponent, actorID *int64) *event.Event {
	return event.NewEvent(t, c.TenantID, entity.AuditEntityPayComponent, c.ID, actorID, map[string]interface{}{
		"code": c.Code,
		"name": c.Name,
		"type": c.Type,
	})
}
