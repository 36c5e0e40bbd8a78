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

// HistoryRepository implements port.HistoryRepository.
// The table rejects UPDATE and DELETE through triggers.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new approval history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, h *entity.PayrollApprovalHistory) error {
	query := `
		INSERT INTO payroll_approval_history (
			run_id, tenant_id, action, actor_id, comments, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		h.RunID,
		h.TenantID,
		h.Action,
		nullInt64(h.ActorID),
		h.Comments,
		h.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval history",
			zap.Int64("run_id", h.RunID),
			zap.String("action", h.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create approval history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListByRun returns a run's entries in the order they were written
func (r *HistoryRepository) ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error) {
	query := `
		SELECT id, run_id, tenant_id, action, actor_id, comments, created_at
		FROM payroll_approval_history
		WHERE tenant_id = ? AND run_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, runID)
	if err != nil {
		r.logger.Error("Failed to list approval history", zap.Int64("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.PayrollApprovalHistory
	for rows.Next() {
		var (
			h       entity.PayrollApprovalHistory
			actorID sql.NullInt64
		)
		if err := rows.Scan(&h.ID, &h.RunID, &h.TenantID, &h.Action, &actorID, &h.Comments, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		h.ActorID = int64Ptr(actorID)
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
