package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/application/workflow"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	domainwf "github.com/garyjia/school-payroll/internal/domain/workflow"
	"github.com/google/uuid"
)

// CreateRunRequest is the input of RunService.CreateRun
type CreateRunRequest struct {
	Period   string  `json:"period"`
	StaffIDs []int64 `json:"staff_ids"`
	TermID   *int64  `json:"term_id,omitempty"`
}

// RunServiceConfig holds ledger posting settings
type RunServiceConfig struct {
	ExpenseCategory string
	Currency        string
}

// RunService owns the salary run lifecycle
type RunService interface {
	CreateRun(ctx context.Context, tenantID string, actorID *int64, req CreateRunRequest) (*entity.SalaryRun, error)
	PrepareRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error)
	SubmitRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error)
	ApproveRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error)
	RejectRun(ctx context.Context, tenantID string, actorID *int64, runID int64, reason string) (*entity.SalaryRun, error)
	FinalizeRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error)
	DeleteRun(ctx context.Context, tenantID string, actorID *int64, runID int64) error
	GetRun(ctx context.Context, tenantID string, runID int64) (*entity.SalaryRun, error)
	ListRuns(ctx context.Context, tenantID string, filter entity.RunFilter) ([]*entity.SalaryRun, error)
	GetRunItems(ctx context.Context, tenantID string, runID int64) ([]*entity.SalaryItem, error)
}

type runServiceImpl struct {
	runs      port.RunRepository
	items     port.SalaryItemRepository
	resolver  ResolverService
	history   HistoryService
	ledger    port.ExpenseLedger
	txManager port.TransactionManager
	events    port.EventPublisher
	cfg       RunServiceConfig
	logger    Logger
}

// NewRunService creates a new RunService
func NewRunService(
	runs port.RunRepository,
	items port.SalaryItemRepository,
	resolver ResolverService,
	history HistoryService,
	ledger port.ExpenseLedger,
	txManager port.TransactionManager,
	events port.EventPublisher,
	cfg RunServiceConfig,
	logger Logger,
) RunService {
	if cfg.ExpenseCategory == "" {
		cfg.ExpenseCategory = entity.ExpenseCategoryPersonnel
	}
	return &runServiceImpl{
		runs:      runs,
		items:     items,
		resolver:  resolver,
		history:   history,
		ledger:    ledger,
		txManager: txManager,
		events:    events,
		cfg:       cfg,
		logger:    orNop(logger),
	}
}

// CreateRun computes items for exactly the given staff and persists a DRAFT run.
// All-zero totals fail with ErrZeroTotals and nothing is written.
func (s *runServiceImpl) CreateRun(ctx context.Context, tenantID string, actorID *int64, req CreateRunRequest) (*entity.SalaryRun, error) {
	period := strings.TrimSpace(req.Period)
	if _, _, ok := payroll.ParsePeriod(period); !ok {
		return nil, fmt.Errorf("%w: period %q must be YYYY-MM", payroll.ErrValidation, req.Period)
	}
	if len(req.StaffIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one staff member is required", payroll.ErrValidation)
	}

	existing, err := s.runs.GetByPeriod(ctx, tenantID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check period: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("run for period %s already exists: %w", period, payroll.ErrConflict)
	}

	items, err := s.resolver.ComputeScope(ctx, tenantID, payroll.ScopeStaffIDs(req.StaffIDs...), period)
	if err != nil {
		return nil, err
	}
	totals := payroll.Totals(items)
	if totals.IsZero() {
		s.logger.Info("Run rejected with zero totals", "tenant_id", tenantID, "period", period)
		return nil, fmt.Errorf("run for period %s: %w", period, payroll.ErrZeroTotals)
	}

	now := time.Now()
	run := &entity.SalaryRun{
		TenantID:  tenantID,
		Period:    period,
		Status:    entity.RunStatusDraft,
		TermID:    req.TermID,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyTotals(run, totals)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.runs.Create(txCtx, run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		return s.persistItems(txCtx, run, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Salary run created",
		"tenant_id", tenantID,
		"run_id", run.ID,
		"period", period,
		"staff_count", run.StaffCount,
		"total_gross", run.TotalGross.String(),
	)
	s.recordTransition(ctx, run, "", entity.ActionCreated, event.TypeRunCreated, actorID, "")
	return withActions(ctx, run), nil
}

// PrepareRun moves a DRAFT or REJECTED run to PREPARED. Existing items are
// re-totalled; a run without items is computed from every staff member
// holding an active assignment.
func (s *runServiceImpl) PrepareRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error) {
	run, from, err := s.loadAndFire(ctx, tenantID, runID, domainwf.TriggerPrepare)
	if err != nil {
		return nil, err
	}

	items, err := s.items.ListByRun(ctx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var fresh []*entity.SalaryItem
	if len(items) == 0 {
		fresh, err = s.resolver.ComputeScope(ctx, tenantID, payroll.ScopeAllActive(), run.Period)
		if err != nil {
			return nil, err
		}
		items = fresh
	}

	totals := payroll.Totals(items)
	if totals.IsZero() {
		return nil, fmt.Errorf("run %d: %w", runID, payroll.ErrZeroTotals)
	}
	applyTotals(run, totals)
	run.PreparedBy = actorID
	run.UpdatedAt = time.Now()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if len(fresh) > 0 {
			if err := s.persistItems(txCtx, run, fresh); err != nil {
				return err
			}
		}
		return s.runs.UpdateIfStatus(txCtx, run, from)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare run %d: %w", runID, err)
	}

	s.recordTransition(ctx, run, from, entity.ActionPrepared, event.TypeRunPrepared, actorID, "")
	return withActions(ctx, run), nil
}

// SubmitRun moves a PREPARED run to SUBMITTED
func (s *runServiceImpl) SubmitRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error) {
	return s.simpleTransition(ctx, tenantID, actorID, runID, domainwf.TriggerSubmit, "")
}

// ApproveRun moves a SUBMITTED run to APPROVED
func (s *runServiceImpl) ApproveRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error) {
	return s.simpleTransition(ctx, tenantID, actorID, runID, domainwf.TriggerApprove, "")
}

// RejectRun moves a SUBMITTED run to REJECTED. The reason is kept in history only.
func (s *runServiceImpl) RejectRun(ctx context.Context, tenantID string, actorID *int64, runID int64, reason string) (*entity.SalaryRun, error) {
	return s.simpleTransition(ctx, tenantID, actorID, runID, domainwf.TriggerReject, reason)
}

// FinalizeRun posts an approved run to the expense ledger exactly once.
// Finalizing an already-posted run returns it unchanged.
func (s *runServiceImpl) FinalizeRun(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error) {
	current, err := s.GetRun(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}
	if current.IsPosted() {
		s.logger.Info("Run already posted", "tenant_id", tenantID, "run_id", runID, "expense_id", *current.PostedExpenseID)
		return current, nil
	}

	run, from, err := s.fire(current, domainwf.TriggerFinalize)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		expenseID, err := s.ledger.CreateApprovedExpense(txCtx, s.expenseFor(run, actorID, now))
		if err != nil {
			return fmt.Errorf("failed to post expense: %w", err)
		}
		run.PostedExpenseID = &expenseID
		run.FinalizedBy = actorID
		run.FinalizedAt = &now
		run.UpdatedAt = now
		return s.runs.UpdateIfStatus(txCtx, run, from)
	})
	if err != nil {
		if errors.Is(err, payroll.ErrConflict) {
			// a concurrent finalize may have won; its posting is the one that counts
			if latest, getErr := s.GetRun(ctx, tenantID, runID); getErr == nil && latest.IsPosted() {
				return latest, nil
			}
		}
		return nil, fmt.Errorf("failed to finalize run %d: %w", runID, err)
	}

	s.logger.Info("Salary run finalized",
		"tenant_id", tenantID,
		"run_id", runID,
		"expense_id", *run.PostedExpenseID,
		"amount", run.PostingAmount().String(),
	)
	s.recordTransition(ctx, run, from, entity.ActionFinalized, event.TypeRunFinalized, actorID, "")
	return withActions(ctx, run), nil
}

// DeleteRun removes a DRAFT run together with its items
func (s *runServiceImpl) DeleteRun(ctx context.Context, tenantID string, actorID *int64, runID int64) error {
	run, err := s.GetRun(ctx, tenantID, runID)
	if err != nil {
		return err
	}
	if run.Status != entity.RunStatusDraft {
		return fmt.Errorf("cannot delete run %d in status %s: %w", runID, run.Status, domainwf.ErrInvalidTransition)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.items.DeleteByRun(txCtx, tenantID, runID); err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		return s.runs.DeleteIfStatus(txCtx, tenantID, runID, entity.RunStatusDraft)
	})
	if err != nil {
		return fmt.Errorf("failed to delete run %d: %w", runID, err)
	}

	s.logger.Info("Salary run deleted", "tenant_id", tenantID, "run_id", runID, "period", run.Period)
	if s.history != nil {
		if err := s.history.Append(ctx, tenantID, runID, entity.ActionDeleted, actorID, ""); err != nil {
			s.logger.Error("Failed to record run history",
				"tenant_id", tenantID,
				"run_id", runID,
				"action", entity.ActionDeleted,
				"error", err,
			)
		}
	}
	publish(ctx, s.events, runEvent(event.TypeRunDeleted, run, run.Status, actorID, ""))
	return nil
}

// GetRun retrieves a run by ID
func (s *runServiceImpl) GetRun(ctx context.Context, tenantID string, runID int64) (*entity.SalaryRun, error) {
	run, err := s.runs.GetByID(ctx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("salary run %d: %w", runID, payroll.ErrNotFound)
	}
	return withActions(ctx, run), nil
}

// ListRuns lists the tenant's runs, newest period first
func (s *runServiceImpl) ListRuns(ctx context.Context, tenantID string, filter entity.RunFilter) ([]*entity.SalaryRun, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !domainwf.State(filter.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", payroll.ErrValidation, filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	runs, err := s.runs.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	for _, run := range runs {
		withActions(ctx, run)
	}
	return runs, nil
}

// GetRunItems returns the computed items of a run
func (s *runServiceImpl) GetRunItems(ctx context.Context, tenantID string, runID int64) ([]*entity.SalaryItem, error) {
	if _, err := s.GetRun(ctx, tenantID, runID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByRun(ctx, tenantID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *runServiceImpl) simpleTransition(ctx context.Context, tenantID string, actorID *int64, runID int64, trigger domainwf.Trigger, comments string) (*entity.SalaryRun, error) {
	run, from, err := s.loadAndFire(ctx, tenantID, runID, trigger)
	if err != nil {
		return nil, err
	}

	var action string
	var evtType event.Type
	switch trigger {
	case domainwf.TriggerSubmit:
		run.SubmittedBy = actorID
		action, evtType = entity.ActionSubmitted, event.TypeRunSubmitted
	case domainwf.TriggerApprove:
		run.ApprovedBy = actorID
		action, evtType = entity.ActionApproved, event.TypeRunApproved
	case domainwf.TriggerReject:
		action, evtType = entity.ActionRejected, event.TypeRunRejected
	default:
		return nil, fmt.Errorf("unsupported trigger %s", trigger)
	}
	run.UpdatedAt = time.Now()

	if err := s.runs.UpdateIfStatus(ctx, run, from); err != nil {
		return nil, fmt.Errorf("failed to %s run %d: %w", strings.ToLower(trigger.String()), runID, err)
	}

	s.recordTransition(ctx, run, from, action, evtType, actorID, comments)
	return withActions(ctx, run), nil
}

// loadAndFire loads the run and moves a copy of it through the state machine
func (s *runServiceImpl) loadAndFire(ctx context.Context, tenantID string, runID int64, trigger domainwf.Trigger) (*entity.SalaryRun, string, error) {
	current, err := s.GetRun(ctx, tenantID, runID)
	if err != nil {
		return nil, "", err
	}
	return s.fire(current, trigger)
}

func (s *runServiceImpl) fire(current *entity.SalaryRun, trigger domainwf.Trigger) (*entity.SalaryRun, string, error) {
	machine, err := workflow.ForRun(current)
	if err != nil {
		return nil, "", fmt.Errorf("run %d has status %q: %w", current.ID, current.Status, err)
	}
	if err := machine.Fire(context.Background(), trigger); err != nil {
		return nil, "", fmt.Errorf("cannot %s run %d in status %s: %w",
			strings.ToLower(trigger.String()), current.ID, current.Status, err)
	}

	run := *current
	run.Status = machine.State().String()
	return &run, current.Status, nil
}

func (s *runServiceImpl) persistItems(ctx context.Context, run *entity.SalaryRun, items []*entity.SalaryItem) error {
	now := time.Now()
	for _, item := range items {
		item.RunID = run.ID
		item.TenantID = run.TenantID
		item.CreatedAt = now
	}
	if err := s.items.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("failed to persist items: %w", err)
	}
	return nil
}

func (s *runServiceImpl) expenseFor(run *entity.SalaryRun, actorID *int64, now time.Time) *entity.Expense {
	return &entity.Expense{
		TenantID:    run.TenantID,
		Category:    s.cfg.ExpenseCategory,
		Amount:      payroll.Round(run.PostingAmount()),
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf("Payroll %s (%d staff)", run.Period, run.StaffCount),
		Reference:   fmt.Sprintf("PAYROLL-%s-%s", run.Period, uuid.NewString()[:8]),
		Status:      entity.ExpenseStatusApproved,
		ExpenseDate: now.Format("2006-01-02"),
		ApprovedBy:  actorID,
	}
}

// recordTransition appends history and publishes the audit event. Neither
// can fail the transition that already committed.
func (s *runServiceImpl) recordTransition(ctx context.Context, run *entity.SalaryRun, from, action string, evtType event.Type, actorID *int64, comments string) {
	if s.history != nil {
		if err := s.history.Append(ctx, run.TenantID, run.ID, action, actorID, comments); err != nil {
			s.logger.Error("Failed to record run history",
				"tenant_id", run.TenantID,
				"run_id", run.ID,
				"action", action,
				"error", err,
			)
		}
	}

	s.logger.Info("Salary run transitioned",
		"tenant_id", run.TenantID,
		"run_id", run.ID,
		"from", from,
		"to", run.Status,
		"actor", actorValue(actorID),
	)
	publish(ctx, s.events, runEvent(evtType, run, from, actorID, comments))
}

func withActions(ctx context.Context, run *entity.SalaryRun) *entity.SalaryRun {
	run.AllowedActions = workflow.AllowedActions(ctx, run)
	return run
}

func applyTotals(run *entity.SalaryRun, t entity.RunTotals) {
	run.TotalGross = t.TotalGross
	run.TotalNet = t.TotalNet
	run.EmployerCost = t.EmployerCost
	run.StaffCount = t.StaffCount
}

func runEvent(t event.Type, run *entity.SalaryRun, from string, actorID *int64, comments string) *event.Event {
	payload := map[string]interface{}{
		"period":      run.Period,
		"from_status": from,
		"status":      run.Status,
		"staff_count": run.StaffCount,
		"total_gross": run.TotalGross.String(),
		"total_net":   run.TotalNet.String(),
	}
	if comments != "" {
		payload["comments"] = comments
	}
	return event.NewEvent(t, run.TenantID, entity.AuditEntitySalaryRun, run.ID, actorID, payload)
}
