package port

import (
	"context"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
)

// StaffDirectory is the read-only view of the staff/user directory
type StaffDirectory interface {
	// GetStaff returns the tenant's staff with the given ids. Unknown or
	// cross-tenant ids are simply absent from the result.
	GetStaff(ctx context.Context, tenantID string, ids []int64) ([]*entity.Staff, error)
}

// ExpenseLedger is the write-only expense collaborator used when a run is finalized.
// Implementations must participate in the transaction carried by ctx.
type ExpenseLedger interface {
	CreateApprovedExpense(ctx context.Context, expense *entity.Expense) (int64, error)
}

// EventPublisher is the fire-and-forget audit sink for lifecycle and catalog events
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// Notifier pushes a short text message to an external chat
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
