package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const componentColumns = `
	id, tenant_id, code, name, type, taxable, compute_method, default_amount,
	formula, department, auto_assign, created_at, updated_at`

// ComponentRepository implements port.ComponentRepository
type ComponentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewComponentRepository creates a new pay component repository
func NewComponentRepository(db *sql.DB, logger *zap.Logger) port.ComponentRepository {
	return &ComponentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a component; a duplicate (tenant, code) yields payroll.ErrConflict
func (r *ComponentRepository) Create(ctx context.Context, c *entity.PayComponent) error {
	query := `
		INSERT INTO pay_components (
			tenant_id, code, name, type, taxable, compute_method, default_amount,
			formula, department, auto_assign, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		c.TenantID,
		c.Code,
		c.Name,
		c.Type,
		c.Taxable,
		c.ComputeMethod,
		c.DefaultAmount,
		c.Formula,
		c.Department,
		c.AutoAssign,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if sqlite.IsUniqueViolation(err) {
		return fmt.Errorf("component code %s: %w", c.Code, payroll.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create component", zap.String("code", c.Code), zap.Error(err))
		return fmt.Errorf("failed to create component: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a component by ID
func (r *ComponentRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.PayComponent, error) {
	query := `SELECT ` + componentColumns + ` FROM pay_components WHERE tenant_id = ? AND id = ?`
	return r.getOne(ctx, query, tenantID, id)
}

// GetByCode retrieves a component by its tenant-unique code
func (r *ComponentRepository) GetByCode(ctx context.Context, tenantID, code string) (*entity.PayComponent, error) {
	query := `SELECT ` + componentColumns + ` FROM pay_components WHERE tenant_id = ? AND code = ?`
	return r.getOne(ctx, query, tenantID, code)
}

// Update writes every mutable column of the component
func (r *ComponentRepository) Update(ctx context.Context, c *entity.PayComponent) error {
	query := `
		UPDATE pay_components
		SET code = ?, name = ?, type = ?, taxable = ?, compute_method = ?,
			default_amount = ?, formula = ?, department = ?, auto_assign = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		c.Code,
		c.Name,
		c.Type,
		c.Taxable,
		c.ComputeMethod,
		c.DefaultAmount,
		c.Formula,
		c.Department,
		c.AutoAssign,
		c.UpdatedAt,
		c.TenantID,
		c.ID,
	)
	if sqlite.IsUniqueViolation(err) {
		return fmt.Errorf("component code %s: %w", c.Code, payroll.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to update component", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update component: %w", err)
	}
	return expectOneRow(result, "component", c.ID)
}

// Delete removes the component; assignments go with it through ON DELETE CASCADE
func (r *ComponentRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM pay_components WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		r.logger.Error("Failed to delete component", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete component: %w", err)
	}
	return expectOneRow(result, "component", id)
}

// List returns the tenant's components matching filter, oldest first
func (r *ComponentRepository) List(ctx context.Context, tenantID string, filter entity.ComponentFilter) ([]*entity.PayComponent, error) {
	var where []string
	args := []interface{}{tenantID}

	where = append(where, "tenant_id = ?")
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Department != "" {
		where = append(where, "department = ? COLLATE NOCASE")
		args = append(args, filter.Department)
	}
	if filter.AutoAssign != nil {
		where = append(where, "auto_assign = ?")
		args = append(args, *filter.AutoAssign)
	}

	query := `SELECT ` + componentColumns + ` FROM pay_components WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at ASC, id ASC`
	return r.getMany(ctx, query, args...)
}

// ListAutoAssign returns auto-assign components, department-scoped first
func (r *ComponentRepository) ListAutoAssign(ctx context.Context, tenantID string) ([]*entity.PayComponent, error) {
	query := `SELECT ` + componentColumns + ` FROM pay_components
		WHERE tenant_id = ? AND auto_assign = 1
		ORDER BY CASE WHEN department = '' THEN 1 ELSE 0 END, created_at ASC, id ASC`
	return r.getMany(ctx, query, tenantID)
}

func (r *ComponentRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.PayComponent, error) {
	c, err := scanComponent(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if sqlite.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get component", zap.Error(err))
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return c, nil
}

func (r *ComponentRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]*entity.PayComponent, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list components", zap.Error(err))
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()

	var components []*entity.PayComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func scanComponent(s rowScanner) (*entity.PayComponent, error) {
	var c entity.PayComponent
	err := s.Scan(
		&c.ID,
		&c.TenantID,
		&c.Code,
		&c.Name,
		&c.Type,
		&c.Taxable,
		&c.ComputeMethod,
		&c.DefaultAmount,
		&c.Formula,
		&c.Department,
		&c.AutoAssign,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// expectOneRow maps a zero-row write onto payroll.ErrNotFound
func expectOneRow(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, payroll.ErrNotFound)
	}
	return nil
}

// Verify interface compliance
var _ port.ComponentRepository = (*ComponentRepository)(nil)
