package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SalaryItemRepository implements port.SalaryItemRepository
type SalaryItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSalaryItemRepository creates a new salary item repository
func NewSalaryItemRepository(db *sql.DB, logger *zap.Logger) port.SalaryItemRepository {
	return &SalaryItemRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts items one by one on the context executor.
// Call it inside a transaction to get all-or-nothing semantics.
func (r *SalaryItemRepository) CreateBatch(ctx context.Context, items []*entity.SalaryItem) error {
	query := `
		INSERT INTO salary_items (
			run_id, tenant_id, staff_id, staff_name, department, breakdown,
			gross_pay, taxable_pay, paye, nhif, nssf, other_deductions,
			total_deductions, net_pay, employer_contrib, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.GetExecutor(ctx, r.db)
	for _, item := range items {
		breakdown, err := json.Marshal(item.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal breakdown for staff %d: %w", item.StaffID, err)
		}

		result, err := exec.ExecContext(ctx, query,
			item.RunID,
			item.TenantID,
			item.StaffID,
			item.StaffName,
			item.Department,
			string(breakdown),
			item.GrossPay,
			item.TaxablePay,
			item.PAYE,
			item.NHIF,
			item.NSSF,
			item.OtherDeductions,
			item.TotalDeductions,
			item.NetPay,
			item.EmployerContrib,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create salary item",
				zap.Int64("run_id", item.RunID),
				zap.Int64("staff_id", item.StaffID),
				zap.Error(err))
			return fmt.Errorf("failed to create salary item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
	}
	return nil
}

// ListByRun returns a run's items ordered by staff id
func (r *SalaryItemRepository) ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.SalaryItem, error) {
	query := `
		SELECT id, run_id, tenant_id, staff_id, staff_name, department, breakdown,
			gross_pay, taxable_pay, paye, nhif, nssf, other_deductions,
			total_deductions, net_pay, employer_contrib, created_at
		FROM salary_items
		WHERE tenant_id = ? AND run_id = ?
		ORDER BY staff_id ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, runID)
	if err != nil {
		r.logger.Error("Failed to list salary items", zap.Int64("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("failed to list salary items: %w", err)
	}
	defer rows.Close()

	var items []*entity.SalaryItem
	for rows.Next() {
		var (
			item      entity.SalaryItem
			breakdown string
		)
		err := rows.Scan(
			&item.ID,
			&item.RunID,
			&item.TenantID,
			&item.StaffID,
			&item.StaffName,
			&item.Department,
			&breakdown,
			&item.GrossPay,
			&item.TaxablePay,
			&item.PAYE,
			&item.NHIF,
			&item.NSSF,
			&item.OtherDeductions,
			&item.TotalDeductions,
			&item.NetPay,
			&item.EmployerContrib,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary item: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &item.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown of item %d: %w", item.ID, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// DeleteByRun removes every item of a run
func (r *SalaryItemRepository) DeleteByRun(ctx context.Context, tenantID string, runID int64) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM salary_items WHERE tenant_id = ? AND run_id = ?`, tenantID, runID)
	if err != nil {
		r.logger.Error("Failed to delete salary items", zap.Int64("run_id", runID), zap.Error(err))
		return fmt.Errorf("failed to delete salary items: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.SalaryItemRepository = (*SalaryItemRepository)(nil)
