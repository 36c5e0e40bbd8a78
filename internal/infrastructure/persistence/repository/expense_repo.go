package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ExpenseRepository implements port.ExpenseLedger on the local expenses table
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense ledger
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// CreateApprovedExpense inserts the expense on the executor carried by ctx,
// so it commits or rolls back together with the run's status change
func (r *ExpenseRepository) CreateApprovedExpense(ctx context.Context, e *entity.Expense) (int64, error) {
	query := `
		INSERT INTO expenses (
			tenant_id, category, amount, currency, description, reference,
			status, expense_date, approved_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		e.TenantID,
		e.Category,
		e.Amount,
		e.Currency,
		e.Description,
		e.Reference,
		e.Status,
		e.ExpenseDate,
		nullInt64(e.ApprovedBy),
	)
	if sqlite.IsUniqueViolation(err) {
		return 0, fmt.Errorf("expense reference %s: %w", e.Reference, payroll.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create expense", zap.String("reference", e.Reference), zap.Error(err))
		return 0, fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return id, nil
}

// GetByID retrieves an expense; used by reporting and tests
func (r *ExpenseRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.Expense, error) {
	query := `
		SELECT id, tenant_id, category, amount, currency, description, reference,
			status, expense_date, approved_by
		FROM expenses
		WHERE tenant_id = ? AND id = ?
	`

	var (
		e          entity.Expense
		approvedBy sql.NullInt64
	)
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id).Scan(
		&e.ID, &e.TenantID, &e.Category, &e.Amount, &e.Currency, &e.Description,
		&e.Reference, &e.Status, &e.ExpenseDate, &approvedBy,
	)
	if sqlite.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	e.ApprovedBy = int64Ptr(approvedBy)
	return &e, nil
}

// Verify interface compliance
var _ port.ExpenseLedger = (*ExpenseRepository)(nil)
