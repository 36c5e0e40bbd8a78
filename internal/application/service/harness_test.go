package service

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const tenant = "school-a"

var ctxBG = context.Background()

type harness struct {
	db          *memDB
	components  *memComponentRepo
	assignments *memAssignmentRepo
	runsRepo    *memRunRepo
	itemsRepo   *memItemRepo
	historyRepo *memHistoryRepo
	auditRepo   *memAuditRepo
	ledger      *memLedger
	events      *recordingPublisher
	logger      *mockLogger

	catalog  CatalogService
	assign   AssignmentService
	resolver ResolverService
	history  HistoryService
	runs     RunService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	h := &harness{
		db:          db,
		components:  &memComponentRepo{db: db},
		assignments: &memAssignmentRepo{db: db},
		runsRepo:    &memRunRepo{db: db},
		itemsRepo:   &memItemRepo{db: db},
		historyRepo: &memHistoryRepo{db: db},
		auditRepo:   &memAuditRepo{db: db},
		ledger:      &memLedger{db: db},
		events:      &recordingPublisher{},
		logger:      &mockLogger{},
	}

	formulas, err := payroll.NewFormulaEvaluator()
	require.NoError(t, err)
	staffDir := &memStaffDirectory{db: db}

	h.catalog = NewCatalogService(h.components, formulas, h.events, h.logger)
	h.assign = NewAssignmentService(h.assignments, h.components, staffDir, h.events, h.logger)
	h.resolver = NewResolverService(h.components, h.assignments, staffDir, payroll.NewResolver(), payroll.NewCalculator(formulas), h.logger)
	h.history = NewHistoryService(h.historyRepo, h.auditRepo, h.runsRepo, h.logger)
	h.runs = NewRunService(
		h.runsRepo, h.itemsRepo, h.resolver, h.history, h.ledger,
		&memTx{db: db}, h.events,
		RunServiceConfig{ExpenseCategory: entity.ExpenseCategoryPersonnel, Currency: "KES"},
		h.logger,
	)
	return h
}

func (h *harness) addStaff(id int64, name, role string, active bool) {
	h.addStaffIn(tenant, id, name, role, active)
}

func (h *harness) addStaffIn(tenantID string, id int64, name, role string, active bool) {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	h.db.staff[id] = entity.Staff{ID: id, TenantID: tenantID, Name: name, Role: role, IsActive: active}
}

func (h *harness) addComponent(t *testing.T, c entity.PayComponent) *entity.PayComponent {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	created, err := h.catalog.Create(ctxBG, tenant, nil, &c)
	require.NoError(t, err)
	return created
}

func (h *harness) grant(t *testing.T, staffID int64, c *entity.PayComponent, amount string) *entity.StaffPayAssignment {
	t.Helper()
	a, err := h.assign.Create(ctxBG, tenant, nil, &entity.StaffPayAssignment{
		StaffID:     staffID,
		ComponentID: c.ID,
		Amount:      decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return a
}

func (h *harness) runCount() int {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return len(h.db.runs)
}

func (h *harness) itemCount() int {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return len(h.db.items)
}

func (h *harness) storedRun(id int64) entity.SalaryRun {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return h.db.runs[id]
}

func basicComponent(name string) entity.PayComponent {
	return entity.PayComponent{
		Name:    name,
		Type:    entity.ComponentTypeBasic,
		Taxable: true,
	}
}

func deductionComponent(name string) entity.PayComponent {
	return entity.PayComponent{
		Name: name,
		Type: entity.ComponentTypeDeduction,
	}
}

func actor(id int64) *int64 {
	return &id
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
