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

const runColumns = `
	id, tenant_id, period, status, term_id, total_gross, total_net, employer_cost,
	staff_count, created_by, prepared_by, submitted_by, approved_by, finalized_by,
	posted_expense_id, finalized_at, created_at, updated_at`

// RunRepository implements port.RunRepository
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new salary run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) port.RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a run; a second run for the same period yields payroll.ErrConflict
func (r *RunRepository) Create(ctx context.Context, run *entity.SalaryRun) error {
	query := `
		INSERT INTO salary_runs (
			tenant_id, period, status, term_id, total_gross, total_net, employer_cost,
			staff_count, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		run.TenantID,
		run.Period,
		run.Status,
		nullInt64(run.TermID),
		run.TotalGross,
		run.TotalNet,
		run.EmployerCost,
		run.StaffCount,
		nullInt64(run.CreatedBy),
		run.CreatedAt,
		run.UpdatedAt,
	)
	if sqlite.IsUniqueViolation(err) {
		return fmt.Errorf("run for period %s: %w", run.Period, payroll.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create salary run", zap.String("period", run.Period), zap.Error(err))
		return fmt.Errorf("failed to create salary run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.SalaryRun, error) {
	query := `SELECT ` + runColumns + ` FROM salary_runs WHERE tenant_id = ? AND id = ?`
	return r.getOne(ctx, query, tenantID, id)
}

// GetByPeriod retrieves the tenant's run for a period
func (r *RunRepository) GetByPeriod(ctx context.Context, tenantID, period string) (*entity.SalaryRun, error) {
	query := `SELECT ` + runColumns + ` FROM salary_runs WHERE tenant_id = ? AND period = ?`
	return r.getOne(ctx, query, tenantID, period)
}

// List returns runs newest period first
func (r *RunRepository) List(ctx context.Context, tenantID string, filter entity.RunFilter) ([]*entity.SalaryRun, error) {
	query := `SELECT ` + runColumns + ` FROM salary_runs WHERE tenant_id = ?`
	args := []interface{}{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY period DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list salary runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list salary runs: %w", err)
	}
	defer rows.Close()

	var runs []*entity.SalaryRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateIfStatus is a compare-and-set on the status column
func (r *RunRepository) UpdateIfStatus(ctx context.Context, run *entity.SalaryRun, expectedStatus string) error {
	query := `
		UPDATE salary_runs
		SET status = ?, term_id = ?, total_gross = ?, total_net = ?, employer_cost = ?,
			staff_count = ?, prepared_by = ?, submitted_by = ?, approved_by = ?,
			finalized_by = ?, posted_expense_id = ?, finalized_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		run.Status,
		nullInt64(run.TermID),
		run.TotalGross,
		run.TotalNet,
		run.EmployerCost,
		run.StaffCount,
		nullInt64(run.PreparedBy),
		nullInt64(run.SubmittedBy),
		nullInt64(run.ApprovedBy),
		nullInt64(run.FinalizedBy),
		nullInt64(run.PostedExpenseID),
		nullTime(run.FinalizedAt),
		run.UpdatedAt,
		run.TenantID,
		run.ID,
		expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update salary run",
			zap.Int64("run_id", run.ID),
			zap.String("status", run.Status),
			zap.Error(err))
		return fmt.Errorf("failed to update salary run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d is no longer %s: %w", run.ID, expectedStatus, payroll.ErrConflict)
	}
	return nil
}

// DeleteIfStatus removes the run while it is still in expectedStatus.
// Items are removed by ON DELETE CASCADE.
func (r *RunRepository) DeleteIfStatus(ctx context.Context, tenantID string, id int64, expectedStatus string) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM salary_runs WHERE tenant_id = ? AND id = ? AND status = ?`,
		tenantID, id, expectedStatus)
	if err != nil {
		r.logger.Error("Failed to delete salary run", zap.Int64("run_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete salary run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d is no longer %s: %w", id, expectedStatus, payroll.ErrConflict)
	}
	return nil
}

func (r *RunRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.SalaryRun, error) {
	run, err := scanRun(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if sqlite.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get salary run", zap.Error(err))
		return nil, fmt.Errorf("failed to get salary run: %w", err)
	}
	return run, nil
}

func scanRun(s rowScanner) (*entity.SalaryRun, error) {
	var (
		run                                                    entity.SalaryRun
		termID, createdBy, preparedBy, submittedBy, approvedBy sql.NullInt64
		finalizedBy, postedExpenseID                           sql.NullInt64
		finalizedAt                                            sql.NullTime
	)
	err := s.Scan(
		&run.ID,
		&run.TenantID,
		&run.Period,
		&run.Status,
		&termID,
		&run.TotalGross,
		&run.TotalNet,
		&run.EmployerCost,
		&run.StaffCount,
		&createdBy,
		&preparedBy,
		&submittedBy,
		&approvedBy,
		&finalizedBy,
		&postedExpenseID,
		&finalizedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.TermID = int64Ptr(termID)
	run.CreatedBy = int64Ptr(createdBy)
	run.PreparedBy = int64Ptr(preparedBy)
	run.SubmittedBy = int64Ptr(submittedBy)
	run.ApprovedBy = int64Ptr(approvedBy)
	run.FinalizedBy = int64Ptr(finalizedBy)
	run.PostedExpenseID = int64Ptr(postedExpenseID)
	run.FinalizedAt = timePtr(finalizedAt)
	return &run, nil
}

// Verify interface compliance
var _ port.RunRepository = (*RunRepository)(nil)
