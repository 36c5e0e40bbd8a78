package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AssignmentRepository implements port.AssignmentRepository
type AssignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new staff pay assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) port.AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new assignment
func (r *AssignmentRepository) Create(ctx context.Context, a *entity.StaffPayAssignment) error {
	query := `
		INSERT INTO staff_pay_assignments (
			tenant_id, staff_id, component_id, amount, effective_from, effective_to,
			is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		a.TenantID,
		a.StaffID,
		a.ComponentID,
		a.Amount,
		nullTime(a.EffectiveFrom),
		nullTime(a.EffectiveTo),
		a.IsActive,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create assignment",
			zap.Int64("staff_id", a.StaffID),
			zap.Int64("component_id", a.ComponentID),
			zap.Error(err))
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = id
	return nil
}

// GetByID retrieves an assignment without its component
func (r *AssignmentRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.StaffPayAssignment, error) {
	query := `
		SELECT id, tenant_id, staff_id, component_id, amount, effective_from, effective_to,
			is_active, created_at, updated_at
		FROM staff_pay_assignments
		WHERE tenant_id = ? AND id = ?
	`

	a, err := scanAssignment(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id))
	if sqlite.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// Update writes amount, dates and the active flag
func (r *AssignmentRepository) Update(ctx context.Context, a *entity.StaffPayAssignment) error {
	query := `
		UPDATE staff_pay_assignments
		SET amount = ?, effective_from = ?, effective_to = ?, is_active = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		a.Amount,
		nullTime(a.EffectiveFrom),
		nullTime(a.EffectiveTo),
		a.IsActive,
		a.UpdatedAt,
		a.TenantID,
		a.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update assignment", zap.Int64("id", a.ID), zap.Error(err))
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return expectOneRow(result, "assignment", a.ID)
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM staff_pay_assignments WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		r.logger.Error("Failed to delete assignment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return expectOneRow(result, "assignment", id)
}

// ListByStaff returns a staff member's assignments joined with the catalog, in grant order
func (r *AssignmentRepository) ListByStaff(ctx context.Context, tenantID string, staffID int64, activeOnly bool) ([]*entity.StaffPayAssignment, error) {
	query := `
		SELECT a.id, a.tenant_id, a.staff_id, a.component_id, a.amount, a.effective_from,
			a.effective_to, a.is_active, a.created_at, a.updated_at,
			` + prefixed("c", componentColumns) + `
		FROM staff_pay_assignments a
		JOIN pay_components c ON c.id = a.component_id AND c.tenant_id = a.tenant_id
		WHERE a.tenant_id = ? AND a.staff_id = ?
	`
	if activeOnly {
		query += ` AND a.is_active = 1`
	}
	query += ` ORDER BY a.created_at ASC, a.id ASC`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, staffID)
	if err != nil {
		r.logger.Error("Failed to list assignments", zap.Int64("staff_id", staffID), zap.Error(err))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.StaffPayAssignment
	for rows.Next() {
		var (
			a        entity.StaffPayAssignment
			c        entity.PayComponent
			from, to sql.NullTime
		)
		err := rows.Scan(
			&a.ID, &a.TenantID, &a.StaffID, &a.ComponentID, &a.Amount, &from,
			&to, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
			&c.ID, &c.TenantID, &c.Code, &c.Name, &c.Type, &c.Taxable, &c.ComputeMethod,
			&c.DefaultAmount, &c.Formula, &c.Department, &c.AutoAssign, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.EffectiveFrom = timePtr(from)
		a.EffectiveTo = timePtr(to)
		a.Component = &c
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

// ListActiveStaffIDs returns staff ids with at least one active assignment
func (r *AssignmentRepository) ListActiveStaffIDs(ctx context.Context, tenantID string) ([]int64, error) {
	query := `
		SELECT DISTINCT staff_id FROM staff_pay_assignments
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY staff_id
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list active staff ids", zap.Error(err))
		return nil, fmt.Errorf("failed to list active staff ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan staff id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAssignment(s rowScanner) (*entity.StaffPayAssignment, error) {
	var (
		a        entity.StaffPayAssignment
		from, to sql.NullTime
	)
	err := s.Scan(
		&a.ID,
		&a.TenantID,
		&a.StaffID,
		&a.ComponentID,
		&a.Amount,
		&from,
		&to,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.EffectiveFrom = timePtr(from)
	a.EffectiveTo = timePtr(to)
	return &a, nil
}

// Verify interface compliance
var _ port.AssignmentRepository = (*AssignmentRepository)(nil)
