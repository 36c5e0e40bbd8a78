package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/school-payroll/internal/container"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/garyjia/school-payroll/internal/domain/workflow"
	"github.com/garyjia/school-payroll/pkg/utils"
)

const tenant = "school-a"

type testServer struct {
	t      *testing.T
	server *Server
	c      *container.Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	c, err := container.NewContainer(&container.Config{
		Database: container.DatabaseConfig{Path: filepath.Join(t.TempDir(), "payroll.db"), MaxOpenConns: 1},
		Payroll:  container.PayrollConfig{ExpenseCategory: "PERSONNEL", Currency: "KES"},
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	svc := c.Services()
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	server := NewServer(cfg, Services{
		Catalog:    svc.Catalog,
		Assignment: svc.Assignment,
		Resolver:   svc.Resolver,
		History:    svc.History,
		Run:        svc.Run,
	}, func(ctx context.Context) (bool, interface{}) {
		h := c.Health(ctx)
		return h.Overall, h.Components
	}, utils.NewKVLogger(zap.NewNop()))

	return &testServer{t: t, server: server, c: c}
}

func (ts *testServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func (ts *testServer) api(method, path string, body interface{}) *httptest.ResponseRecorder {
	return ts.do(method, "/api/v1"+path, body, map[string]string{
		HeaderTenantID: tenant,
		HeaderActorID:  "1",
	})
}

// decode unwraps Response.Data into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return Response{Success: resp.Success, Error: resp.Error}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	resp := decode(t, w, &health)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", health.Status)
}

func TestTenantHeaderRequired(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/v1/runs", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/runs", nil, map[string]string{HeaderTenantID: tenant, HeaderActorID: "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayrollFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	staffRepo := ts.c.Repositories().Staff
	alice := &entity.Staff{TenantID: tenant, Name: "Alice", Role: "teacher", IsActive: true}
	require.NoError(t, staffRepo.Create(ctx, alice))

	w := ts.api(http.MethodPost, "/components", map[string]interface{}{
		"name": "Basic Salary", "type": "BASIC", "taxable": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var basic entity.PayComponent
	decode(t, w, &basic)
	assert.Equal(t, "BASIC_SALARY", basic.Code)

	w = ts.api(http.MethodPost, "/assignments", map[string]interface{}{
		"staff_id": alice.ID, "component_id": basic.ID, "amount": "1500.50", "effective_from": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.api(http.MethodGet, "/staff/"+strconv.FormatInt(alice.ID, 10)+"/preview?period=2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.api(http.MethodPost, "/runs", map[string]interface{}{
		"period": "2025-03", "staff_ids": []int64{alice.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run entity.SalaryRun
	decode(t, w, &run)
	assert.Equal(t, "1500.5", run.TotalGross.String())
	assert.Equal(t, []string{"prepare"}, run.AllowedActions)

	runPath := "/runs/" + strconv.FormatInt(run.ID, 10)

	// approving a DRAFT run is not a permitted transition
	w = ts.api(http.MethodPost, runPath+"/approve", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	for _, step := range []string{"prepare", "submit"} {
		w = ts.api(http.MethodPost, runPath+"/"+step, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step, w.Body.String())
	}

	w = ts.api(http.MethodPost, runPath+"/reject", map[string]string{"reason": "check allowances"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &run)
	assert.Equal(t, entity.RunStatusRejected, run.Status)

	for _, step := range []string{"prepare", "submit", "approve", "finalize"} {
		w = ts.api(http.MethodPost, runPath+"/"+step, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step, w.Body.String())
	}
	decode(t, w, &run)
	assert.Equal(t, entity.RunStatusFinalized, run.Status)
	assert.True(t, run.IsPosted())

	w = ts.api(http.MethodGet, runPath+"/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []entity.SalaryItem
	decode(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "1500.5", items[0].NetPay.String())

	w = ts.api(http.MethodGet, runPath+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []entity.PayrollApprovalHistory
	decode(t, w, &history)
	require.Len(t, history, 8)
	assert.Equal(t, "REJECTED", history[3].Action)
	assert.Equal(t, "check allowances", history[3].Comments)

	w = ts.api(http.MethodDelete, runPath, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = ts.api(http.MethodGet, "/runs?status=FINALIZED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var runs []entity.SalaryRun
	decode(t, w, &runs)
	assert.Len(t, runs, 1)
}

func TestRejectRunWithoutBody(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	bob := &entity.Staff{TenantID: tenant, Name: "Bob", Role: "librarian", IsActive: true}
	require.NoError(t, ts.c.Repositories().Staff.Create(ctx, bob))

	w := ts.api(http.MethodPost, "/components", map[string]interface{}{"name": "Basic", "type": "BASIC"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var basic entity.PayComponent
	decode(t, w, &basic)

	w = ts.api(http.MethodPost, "/assignments", map[string]interface{}{
		"staff_id": bob.ID, "component_id": basic.ID, "amount": "900",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.api(http.MethodPost, "/runs", map[string]interface{}{"period": "2025-04", "staff_ids": []int64{bob.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run entity.SalaryRun
	decode(t, w, &run)
	runPath := "/api/v1/runs/" + strconv.FormatInt(run.ID, 10)

	for _, step := range []string{"prepare", "submit"} {
		w = ts.api(http.MethodPost, "/runs/"+strconv.FormatInt(run.ID, 10)+"/"+step, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step, w.Body.String())
	}

	// a chunked request with an empty body has an unknown length
	req := httptest.NewRequest(http.MethodPost, runPath+"/reject", io.LimitReader(strings.NewReader(""), 0))
	require.Equal(t, int64(-1), req.ContentLength)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, tenant)

	w = httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &run)
	assert.Equal(t, entity.RunStatusRejected, run.Status)

	// an empty body passes binding and reaches the lifecycle check
	w = ts.do(http.MethodPost, runPath+"/reject", nil, map[string]string{HeaderTenantID: tenant})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	// a malformed body is still a bad request
	req = httptest.NewRequest(http.MethodPost, runPath+"/reject", strings.NewReader("{"))
	req.Header.Set(HeaderTenantID, tenant)
	w = httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	w := ts.api(http.MethodPost, "/runs", map[string]interface{}{"period": "March", "staff_ids": []int64{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.api(http.MethodGet, "/runs/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.api(http.MethodGet, "/runs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.api(http.MethodGet, "/runs?status=PAID", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := map[string]interface{}{"code": "HOUSING", "name": "Housing", "type": "ALLOWANCE"}
	require.Equal(t, http.StatusCreated, ts.api(http.MethodPost, "/components", body).Code)
	w = ts.api(http.MethodPost, "/components", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.api(http.MethodPost, "/components", map[string]interface{}{
		"name": "Bonus", "type": "ALLOWANCE", "compute_method": "FORMULA", "formula": "basic *",
	})
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{payroll.ErrValidation, http.StatusBadRequest},
		{payroll.ErrNotFound, http.StatusNotFound},
		{payroll.ErrConflict, http.StatusConflict},
		{workflow.ErrInvalidTransition, http.StatusPreconditionFailed},
		{workflow.ErrGuardFailed, http.StatusPreconditionFailed},
		{payroll.ErrZeroTotals, http.StatusUnprocessableEntity},
		{payroll.ErrFormula, http.StatusUnprocessableEntity},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
