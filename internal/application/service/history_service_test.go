package service

import (
	"errors"
	"testing"
	"time"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyRun(h *harness) int64 {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	id := h.db.id()
	h.db.runs[id] = entity.SalaryRun{ID: id, TenantID: tenant, Period: "2024-12", Status: entity.RunStatusApproved}
	return id
}

func TestHistoryService_AppendAndRead(t *testing.T) {
	h := newHarness(t)
	runID := legacyRun(h)

	require.NoError(t, h.history.Append(ctxBG, tenant, runID, entity.ActionSubmitted, actor(3), ""))
	require.NoError(t, h.history.Append(ctxBG, tenant, runID, entity.ActionRejected, nil, " wrong totals "))

	entries, err := h.history.Read(ctxBG, tenant, runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.ActionSubmitted, entries[0].Action)
	assert.Nil(t, entries[1].ActorID)
	assert.Equal(t, "wrong totals", entries[1].Comments)

	_, err = h.history.Read(ctxBG, tenant, 12345)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
	_, err = h.history.Read(ctxBG, "school-b", runID)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestHistoryService_FallsBackToAuditLog(t *testing.T) {
	h := newHarness(t)
	runID := legacyRun(h)
	base := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

	logs := []*entity.AuditLogEntry{
		{TenantID: tenant, EntityType: entity.AuditEntitySalaryRun, EntityID: runID, Action: "APPROVED", ActorID: actor(5), CreatedAt: base.Add(2 * time.Hour)},
		{TenantID: tenant, EntityType: entity.AuditEntitySalaryRun, EntityID: runID, Action: event.TypeRunSubmitted.String(), Details: `{"comments":"please review"}`, CreatedAt: base.Add(time.Hour)},
		{TenantID: tenant, EntityType: entity.AuditEntitySalaryRun, EntityID: runID, Action: "EXPORTED", CreatedAt: base},
		{TenantID: tenant, EntityType: entity.AuditEntityPayComponent, EntityID: runID, Action: "CREATED", CreatedAt: base},
		{TenantID: "school-b", EntityType: entity.AuditEntitySalaryRun, EntityID: runID, Action: "CREATED", CreatedAt: base},
	}
	for _, l := range logs {
		require.NoError(t, h.auditRepo.Create(ctxBG, l))
	}

	entries, err := h.history.Read(ctxBG, tenant, runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.ActionSubmitted, entries[0].Action)
	assert.Equal(t, "please review", entries[0].Comments)
	assert.Equal(t, entity.ActionApproved, entries[1].Action)
	assert.Equal(t, int64(5), *entries[1].ActorID)
}

func TestHistoryService_NativeRowsWin(t *testing.T) {
	h := newHarness(t)
	runID := legacyRun(h)
	require.NoError(t, h.auditRepo.Create(ctxBG, &entity.AuditLogEntry{
		TenantID: tenant, EntityType: entity.AuditEntitySalaryRun, EntityID: runID, Action: "SUBMITTED",
	}))
	require.NoError(t, h.history.Append(ctxBG, tenant, runID, entity.ActionApproved, nil, ""))

	entries, err := h.history.Read(ctxBG, tenant, runID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActionApproved, entries[0].Action)
}

func TestHistoryService_FallbackErrorIsSwallowed(t *testing.T) {
	h := newHarness(t)
	runID := legacyRun(h)
	h.auditRepo.listErr = errors.New("audit store offline")

	entries, err := h.history.Read(ctxBG, tenant, runID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, h.logger.errors, "Failed to rebuild history from audit log")
}

func TestCommentsFromDetails(t *testing.T) {
	assert.Equal(t, "", commentsFromDetails(""))
	assert.Equal(t, "free text", commentsFromDetails("free text"))
	assert.Equal(t, "x", commentsFromDetails(`{"comments":"x","period":"2025-03"}`))
	assert.Equal(t, "", commentsFromDetails(`{"period":"2025-03"}`))
}
