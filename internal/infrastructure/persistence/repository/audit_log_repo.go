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

// AuditLogRepository implements port.AuditLogRepository
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *entity.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (
			tenant_id, actor_id, action, entity_type, entity_id, details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.TenantID,
		nullInt64(entry.ActorID),
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit log", zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByEntity returns the entries for one entity, oldest first
func (r *AuditLogRepository) ListByEntity(ctx context.Context, tenantID, entityType string, entityID int64) ([]*entity.AuditLogEntry, error) {
	query := `
		SELECT id, tenant_id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list audit logs",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var (
			e       entity.AuditLogEntry
			actorID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &actorID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.ActorID = int64Ptr(actorID)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
