package port

import (
	"context"

	"github.com/garyjia/school-payroll/internal/domain/entity"
)

// Every repository method is tenant-scoped: reads and writes filter by
// tenant id. Lookups of missing rows return (nil, nil).

// ComponentRepository defines persistence operations for PayComponent
type ComponentRepository interface {
	Create(ctx context.Context, c *entity.PayComponent) error
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.PayComponent, error)
	GetByCode(ctx context.Context, tenantID, code string) (*entity.PayComponent, error)
	Update(ctx context.Context, c *entity.PayComponent) error
	Delete(ctx context.Context, tenantID string, id int64) error
	List(ctx context.Context, tenantID string, filter entity.ComponentFilter) ([]*entity.PayComponent, error)

	// ListAutoAssign returns auto-assign components, department-scoped
	// first, then system-wide, each group in creation order
	ListAutoAssign(ctx context.Context, tenantID string) ([]*entity.PayComponent, error)
}

// AssignmentRepository defines persistence operations for StaffPayAssignment
type AssignmentRepository interface {
	Create(ctx context.Context, a *entity.StaffPayAssignment) error
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.StaffPayAssignment, error)
	Update(ctx context.Context, a *entity.StaffPayAssignment) error
	Delete(ctx context.Context, tenantID string, id int64) error

	// ListByStaff returns the staff member's assignments joined with their component
	ListByStaff(ctx context.Context, tenantID string, staffID int64, activeOnly bool) ([]*entity.StaffPayAssignment, error)

	// ListActiveStaffIDs returns every staff id holding at least one active assignment
	ListActiveStaffIDs(ctx context.Context, tenantID string) ([]int64, error)
}

// RunRepository defines persistence operations for SalaryRun
type RunRepository interface {
	Create(ctx context.Context, run *entity.SalaryRun) error
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.SalaryRun, error)
	GetByPeriod(ctx context.Context, tenantID, period string) (*entity.SalaryRun, error)
	List(ctx context.Context, tenantID string, filter entity.RunFilter) ([]*entity.SalaryRun, error)

	// UpdateIfStatus persists the run's mutable columns only while the stored
	// status still equals expectedStatus. A lost race returns payroll.ErrConflict.
	UpdateIfStatus(ctx context.Context, run *entity.SalaryRun, expectedStatus string) error

	// DeleteIfStatus removes the run and its items while the stored status equals expectedStatus
	DeleteIfStatus(ctx context.Context, tenantID string, id int64, expectedStatus string) error
}

// SalaryItemRepository defines persistence operations for SalaryItem
type SalaryItemRepository interface {
	CreateBatch(ctx context.Context, items []*entity.SalaryItem) error
	ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.SalaryItem, error)
	DeleteByRun(ctx context.Context, tenantID string, runID int64) error
}

// HistoryRepository is the append-only store for PayrollApprovalHistory.
// It has no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.PayrollApprovalHistory) error
	ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error)
}

// AuditLogRepository defines persistence operations for the generic audit log
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditLogEntry) error
	ListByEntity(ctx context.Context, tenantID, entityType string, entityID int64) ([]*entity.AuditLogEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
