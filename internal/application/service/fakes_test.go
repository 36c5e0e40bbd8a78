package service

import (
	"context"
	"sort"
	"sync"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
)

// memDB is an in-memory store shared by the fake repositories. Rows are kept
// by value so callers cannot mutate stored state through returned pointers.
type memDB struct {
	mu          sync.Mutex
	nextID      int64
	components  map[int64]entity.PayComponent
	assignments map[int64]entity.StaffPayAssignment
	runs        map[int64]entity.SalaryRun
	items       map[int64]entity.SalaryItem
	history     []entity.PayrollApprovalHistory
	audit       []entity.AuditLogEntry
	expenses    map[int64]entity.Expense
	staff       map[int64]entity.Staff
}

func newMemDB() *memDB {
	return &memDB{
		components:  map[int64]entity.PayComponent{},
		assignments: map[int64]entity.StaffPayAssignment{},
		runs:        map[int64]entity.SalaryRun{},
		items:       map[int64]entity.SalaryItem{},
		expenses:    map[int64]entity.Expense{},
		staff:       map[int64]entity.Staff{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

type memSnapshot struct {
	nextID      int64
	components  map[int64]entity.PayComponent
	assignments map[int64]entity.StaffPayAssignment
	runs        map[int64]entity.SalaryRun
	items       map[int64]entity.SalaryItem
	history     []entity.PayrollApprovalHistory
	audit       []entity.AuditLogEntry
	expenses    map[int64]entity.Expense
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		nextID:      db.nextID,
		components:  cloneMap(db.components),
		assignments: cloneMap(db.assignments),
		runs:        cloneMap(db.runs),
		items:       cloneMap(db.items),
		history:     append([]entity.PayrollApprovalHistory(nil), db.history...),
		audit:       append([]entity.AuditLogEntry(nil), db.audit...),
		expenses:    cloneMap(db.expenses),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID = s.nextID
	db.components = s.components
	db.assignments = s.assignments
	db.runs = s.runs
	db.items = s.items
	db.history = s.history
	db.audit = s.audit
	db.expenses = s.expenses
}

// memTx rolls the store back when fn fails
type memTx struct {
	db *memDB
}

func (m *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.db.snapshot()
	if err := fn(ctx); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

type memComponentRepo struct{ db *memDB }

func (r *memComponentRepo) Create(ctx context.Context, c *entity.PayComponent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.components {
		if existing.TenantID == c.TenantID && existing.Code == c.Code {
			return payroll.ErrConflict
		}
	}
	c.ID = r.db.id()
	r.db.components[c.ID] = *c
	return nil
}

func (r *memComponentRepo) GetByID(ctx context.Context, tenantID string, id int64) (*entity.PayComponent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.components[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return &c, nil
}

func (r *memComponentRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.PayComponent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.components {
		if c.TenantID == tenantID && c.Code == code {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memComponentRepo) Update(ctx context.Context, c *entity.PayComponent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.components[c.ID] = *c
	return nil
}

func (r *memComponentRepo) Delete(ctx context.Context, tenantID string, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.components, id)
	for aid, a := range r.db.assignments {
		if a.ComponentID == id {
			delete(r.db.assignments, aid)
		}
	}
	return nil
}

func (r *memComponentRepo) List(ctx context.Context, tenantID string, filter entity.ComponentFilter) ([]*entity.PayComponent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.PayComponent
	for _, c := range r.db.components {
		c := c
		if c.TenantID != tenantID {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		if filter.AutoAssign != nil && c.AutoAssign != *filter.AutoAssign {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memComponentRepo) ListAutoAssign(ctx context.Context, tenantID string) ([]*entity.PayComponent, error) {
	auto := true
	return r.List(ctx, tenantID, entity.ComponentFilter{AutoAssign: &auto})
}

type memAssignmentRepo struct{ db *memDB }

func (r *memAssignmentRepo) Create(ctx context.Context, a *entity.StaffPayAssignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	stored := *a
	stored.Component = nil
	r.db.assignments[a.ID] = stored
	return nil
}

func (r *memAssignmentRepo) GetByID(ctx context.Context, tenantID string, id int64) (*entity.StaffPayAssignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.assignments[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	return &a, nil
}

func (r *memAssignmentRepo) Update(ctx context.Context, a *entity.StaffPayAssignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored := *a
	stored.Component = nil
	r.db.assignments[a.ID] = stored
	return nil
}

func (r *memAssignmentRepo) Delete(ctx context.Context, tenantID string, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.assignments, id)
	return nil
}

func (r *memAssignmentRepo) ListByStaff(ctx context.Context, tenantID string, staffID int64, activeOnly bool) ([]*entity.StaffPayAssignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.StaffPayAssignment
	for _, a := range r.db.assignments {
		a := a
		if a.TenantID != tenantID || a.StaffID != staffID || (activeOnly && !a.IsActive) {
			continue
		}
		if c, ok := r.db.components[a.ComponentID]; ok {
			a.Component = &c
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAssignmentRepo) ListActiveStaffIDs(ctx context.Context, tenantID string) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, a := range r.db.assignments {
		if a.TenantID == tenantID && a.IsActive && !seen[a.StaffID] {
			seen[a.StaffID] = true
			ids = append(ids, a.StaffID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memRunRepo struct {
	db *memDB

	// beforeUpdate runs ahead of the compare-and-set, e.g. to simulate a concurrent writer
	beforeUpdate func(run *entity.SalaryRun)
	updateCalls  int
}

func (r *memRunRepo) Create(ctx context.Context, run *entity.SalaryRun) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.runs {
		if existing.TenantID == run.TenantID && existing.Period == run.Period {
			return payroll.ErrConflict
		}
	}
	run.ID = r.db.id()
	r.db.runs[run.ID] = *run
	return nil
}

func (r *memRunRepo) GetByID(ctx context.Context, tenantID string, id int64) (*entity.SalaryRun, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	run, ok := r.db.runs[id]
	if !ok || run.TenantID != tenantID {
		return nil, nil
	}
	return &run, nil
}

func (r *memRunRepo) GetByPeriod(ctx context.Context, tenantID, period string) (*entity.SalaryRun, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, run := range r.db.runs {
		if run.TenantID == tenantID && run.Period == period {
			found := run
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memRunRepo) List(ctx context.Context, tenantID string, filter entity.RunFilter) ([]*entity.SalaryRun, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.SalaryRun
	for _, run := range r.db.runs {
		run := run
		if run.TenantID == tenantID && (filter.Status == "" || run.Status == filter.Status) {
			out = append(out, &run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

func (r *memRunRepo) UpdateIfStatus(ctx context.Context, run *entity.SalaryRun, expectedStatus string) error {
	r.updateCalls++
	if r.beforeUpdate != nil {
		r.beforeUpdate(run)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.runs[run.ID]
	if !ok || stored.TenantID != run.TenantID || stored.Status != expectedStatus {
		return payroll.ErrConflict
	}
	r.db.runs[run.ID] = *run
	return nil
}

func (r *memRunRepo) DeleteIfStatus(ctx context.Context, tenantID string, id int64, expectedStatus string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.runs[id]
	if !ok || stored.TenantID != tenantID || stored.Status != expectedStatus {
		return payroll.ErrConflict
	}
	delete(r.db.runs, id)
	return nil
}

// setStatus bypasses the lifecycle to put a run into an arbitrary state
func (r *memRunRepo) setStatus(id int64, status string) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	run := r.db.runs[id]
	run.Status = status
	r.db.runs[id] = run
}

type memItemRepo struct{ db *memDB }

func (r *memItemRepo) CreateBatch(ctx context.Context, items []*entity.SalaryItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, item := range items {
		item.ID = r.db.id()
		r.db.items[item.ID] = *item
	}
	return nil
}

func (r *memItemRepo) ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.SalaryItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.SalaryItem
	for _, item := range r.db.items {
		item := item
		if item.TenantID == tenantID && item.RunID == runID {
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (r *memItemRepo) DeleteByRun(ctx context.Context, tenantID string, runID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, item := range r.db.items {
		if item.TenantID == tenantID && item.RunID == runID {
			delete(r.db.items, id)
		}
	}
	return nil
}

type memHistoryRepo struct {
	db      *memDB
	failErr error
}

func (r *memHistoryRepo) Create(ctx context.Context, h *entity.PayrollApprovalHistory) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h.ID = r.db.id()
	r.db.history = append(r.db.history, *h)
	return nil
}

func (r *memHistoryRepo) ListByRun(ctx context.Context, tenantID string, runID int64) ([]*entity.PayrollApprovalHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.PayrollApprovalHistory
	for _, h := range r.db.history {
		h := h
		if h.TenantID == tenantID && h.RunID == runID {
			out = append(out, &h)
		}
	}
	return out, nil
}

type memAuditRepo struct {
	db      *memDB
	listErr error
}

func (r *memAuditRepo) Create(ctx context.Context, entry *entity.AuditLogEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = r.db.id()
	r.db.audit = append(r.db.audit, *entry)
	return nil
}

func (r *memAuditRepo) ListByEntity(ctx context.Context, tenantID, entityType string, entityID int64) ([]*entity.AuditLogEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.AuditLogEntry
	for _, e := range r.db.audit {
		e := e
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, &e)
		}
	}
	return out, nil
}

type memStaffDirectory struct{ db *memDB }

func (d *memStaffDirectory) GetStaff(ctx context.Context, tenantID string, ids []int64) ([]*entity.Staff, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	var out []*entity.Staff
	for _, id := range ids {
		if s, ok := d.db.staff[id]; ok && s.TenantID == tenantID {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

type memLedger struct {
	db      *memDB
	failErr error
}

func (l *memLedger) CreateApprovedExpense(ctx context.Context, expense *entity.Expense) (int64, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	expense.ID = l.db.id()
	l.db.expenses[expense.ID] = *expense
	if l.failErr != nil {
		// the row was written; the surrounding transaction must undo it
		return 0, l.failErr
	}
	return expense.ID, nil
}

func (l *memLedger) count() int {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return len(l.db.expenses)
}

// recordingPublisher captures events synchronously
type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *recordingPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
