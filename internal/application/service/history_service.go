package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
)

// HistoryService records and reads the approval trail of salary runs
type HistoryService interface {
	// Append inserts one history entry; entries are never updated or deleted
	Append(ctx context.Context, tenantID string, runID int64, action string, actorID *int64, comments string) error

	// Read returns the run's entries in chronological order
	Read(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error)
}

type historyServiceImpl struct {
	history port.HistoryRepository
	audit   port.AuditLogRepository
	runs    port.RunRepository
	logger  Logger
}

// NewHistoryService creates a new HistoryService. audit may be nil, which
// disables the legacy fallback.
func NewHistoryService(
	history port.HistoryRepository,
	audit port.AuditLogRepository,
	runs port.RunRepository,
	logger Logger,
) HistoryService {
	return &historyServiceImpl{
		history: history,
		audit:   audit,
		runs:    runs,
		logger:  orNop(logger),
	}
}

// Append inserts one history entry
func (s *historyServiceImpl) Append(ctx context.Context, tenantID string, runID int64, action string, actorID *int64, comments string) error {
	h := &entity.PayrollApprovalHistory{
		RunID:     runID,
		TenantID:  tenantID,
		Action:    action,
		ActorID:   actorID,
		Comments:  strings.TrimSpace(comments),
		CreatedAt: time.Now(),
	}
	if err := s.history.Create(ctx, h); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Read returns native history, or the legacy audit-log reconstruction when none exists
func (s *historyServiceImpl) Read(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error) {
	run, err := s.runs.GetByID(ctx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("salary run %d: %w", runID, payroll.ErrNotFound)
	}

	entries, err := s.history.ListByRun(ctx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(entries) > 0 || s.audit == nil {
		return entries, nil
	}

	legacy, err := s.legacyHistoryFromAuditLog(ctx, tenantID, runID)
	if err != nil {
		// the fallback is best effort
		s.logger.Error("Failed to rebuild history from audit log", "tenant_id", tenantID, "run_id", runID, "error", err)
		return entries, nil
	}
	return legacy, nil
}

// auditActions maps audit-log action names onto history actions
var auditActions = map[string]string{
	event.TypeRunCreated.String():   entity.ActionCreated,
	event.TypeRunPrepared.String():  entity.ActionPrepared,
	event.TypeRunSubmitted.String(): entity.ActionSubmitted,
	event.TypeRunApproved.String():  entity.ActionApproved,
	event.TypeRunRejected.String():  entity.ActionRejected,
	event.TypeRunFinalized.String(): entity.ActionFinalized,
	event.TypeRunDeleted.String():   entity.ActionDeleted,
	entity.ActionCreated:            entity.ActionCreated,
	entity.ActionPrepared:           entity.ActionPrepared,
	entity.ActionSubmitted:          entity.ActionSubmitted,
	entity.ActionApproved:           entity.ActionApproved,
	entity.ActionRejected:           entity.ActionRejected,
	entity.ActionFinalized:          entity.ActionFinalized,
}

// legacyHistoryFromAuditLog rebuilds a partial trail for runs that predate the
// history table.
// TODO: remove once every run has been backfilled into payroll_approval_history.
func (s *historyServiceImpl) legacyHistoryFromAuditLog(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error) {
	logs, err := s.audit.ListByEntity(ctx, tenantID, entity.AuditEntitySalaryRun, runID)
	if err != nil {
		return nil, err
	}

	entries := make([]*entity.PayrollApprovalHistory, 0, len(logs))
	for _, l := range logs {
		action, ok := auditActions[l.Action]
		if !ok {
			continue
		}
		entries = append(entries, &entity.PayrollApprovalHistory{
			RunID:     runID,
			TenantID:  tenantID,
			Action:    action,
			ActorID:   l.ActorID,
			Comments:  commentsFromDetails(l.Details),
			CreatedAt: l.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// commentsFromDetails pulls the "comments" field out of a JSON details blob.
// Plain-text details are legacy free-form comments.
func commentsFromDetails(details string) string {
	details = strings.TrimSpace(details)
	if details == "" {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(details), &payload); err != nil {
		return details
	}
	if c, ok := payload["comments"].(string); ok {
		return c
	}
	return ""
}
