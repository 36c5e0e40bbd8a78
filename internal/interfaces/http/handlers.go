package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/school-payroll/internal/application/service"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/pkg/utils"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	health   HealthReporter
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthReporter, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// ComponentRequest is the body of POST /components
type ComponentRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Taxable       bool            `json:"taxable"`
	ComputeMethod string          `json:"compute_method"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	Formula       string          `json:"formula"`
	Department    string          `json:"department"`
	AutoAssign    bool            `json:"auto_assign"`
}

// AssignmentRequest is the body of POST /assignments. Dates are YYYY-MM-DD.
type AssignmentRequest struct {
	StaffID       int64           `json:"staff_id"`
	ComponentID   int64           `json:"component_id"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   string          `json:"effective_to"`
}

// AssignmentPatchRequest is the body of PATCH /assignments/:id
type AssignmentPatchRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	EffectiveFrom *string          `json:"effective_from"`
	EffectiveTo   *string          `json:"effective_to"`
	IsActive      *bool            `json:"is_active"`
}

// RejectRequest is the body of POST /runs/:id/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.health != nil {
		healthy, details := h.health(c.Request.Context())
		resp.Components = details
		if !healthy {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// CreateComponent handles POST /api/v1/components
func (h *Handlers) CreateComponent(c *gin.Context) {
	var req ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	created, err := h.services.Catalog.Create(c.Request.Context(), tenantOf(c), actorOf(c), &entity.PayComponent{
		Code:          req.Code,
		Name:          req.Name,
		Type:          req.Type,
		Taxable:       req.Taxable,
		ComputeMethod: req.ComputeMethod,
		DefaultAmount: req.DefaultAmount,
		Formula:       req.Formula,
		Department:    req.Department,
		AutoAssign:    req.AutoAssign,
	})
	if err != nil {
		h.writeError(c, "create component", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListComponents handles GET /api/v1/components?type=&department=&auto_assign=
func (h *Handlers) ListComponents(c *gin.Context) {
	filter := entity.ComponentFilter{
		Type:       strings.ToUpper(c.Query("type")),
		Department: c.Query("department"),
	}
	if raw := c.Query("auto_assign"); raw != "" {
		auto, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "auto_assign must be a boolean")
			return
		}
		filter.AutoAssign = &auto
	}

	components, err := h.services.Catalog.List(c.Request.Context(), tenantOf(c), filter)
	if err != nil {
		h.writeError(c, "list components", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: components})
}

// GetComponent handles GET /api/v1/components/:id
func (h *Handlers) GetComponent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	component, err := h.services.Catalog.Get(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		h.writeError(c, "get component", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: component})
}

// UpdateComponent handles PATCH /api/v1/components/:id
func (h *Handlers) UpdateComponent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch entity.ComponentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.services.Catalog.Update(c.Request.Context(), tenantOf(c), actorOf(c), id, patch)
	if err != nil {
		h.writeError(c, "update component", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// DeleteComponent handles DELETE /api/v1/components/:id
func (h *Handlers) DeleteComponent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Catalog.Delete(c.Request.Context(), tenantOf(c), actorOf(c), id); err != nil {
		h.writeError(c, "delete component", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateAssignment handles POST /api/v1/assignments
func (h *Handlers) CreateAssignment(c *gin.Context) {
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	from, err := parseDate(req.EffectiveFrom)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	to, err := parseDate(req.EffectiveTo)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := h.services.Assignment.Create(c.Request.Context(), tenantOf(c), actorOf(c), &entity.StaffPayAssignment{
		StaffID:       req.StaffID,
		ComponentID:   req.ComponentID,
		Amount:        req.Amount,
		EffectiveFrom: from,
		EffectiveTo:   to,
	})
	if err != nil {
		h.writeError(c, "create assignment", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// UpdateAssignment handles PATCH /api/v1/assignments/:id
func (h *Handlers) UpdateAssignment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req AssignmentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	patch := entity.AssignmentPatch{Amount: req.Amount, IsActive: req.IsActive}
	var err error
	if req.EffectiveFrom != nil {
		if patch.EffectiveFrom, err = parseDate(*req.EffectiveFrom); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if req.EffectiveTo != nil {
		if patch.EffectiveTo, err = parseDate(*req.EffectiveTo); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	updated, err := h.services.Assignment.Update(c.Request.Context(), tenantOf(c), actorOf(c), id, patch)
	if err != nil {
		h.writeError(c, "update assignment", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// DeleteAssignment handles DELETE /api/v1/assignments/:id
func (h *Handlers) DeleteAssignment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Assignment.Delete(c.Request.Context(), tenantOf(c), actorOf(c), id); err != nil {
		h.writeError(c, "delete assignment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStaffAssignments handles GET /api/v1/staff/:id/assignments
func (h *Handlers) ListStaffAssignments(c *gin.Context) {
	staffID, ok := pathID(c)
	if !ok {
		return
	}
	assignments, err := h.services.Assignment.ListByStaff(c.Request.Context(), tenantOf(c), staffID)
	if err != nil {
		h.writeError(c, "list assignments", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: assignments})
}

// PreviewStaff handles GET /api/v1/staff/:id/preview?period=YYYY-MM
func (h *Handlers) PreviewStaff(c *gin.Context) {
	staffID, ok := pathID(c)
	if !ok {
		return
	}
	preview, err := h.services.Resolver.Preview(c.Request.Context(), tenantOf(c), staffID, c.Query("period"))
	if err != nil {
		h.writeError(c, "preview staff", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: preview})
}

// CreateRun handles POST /api/v1/runs
func (h *Handlers) CreateRun(c *gin.Context) {
	var req service.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	run, err := h.services.Run.CreateRun(c.Request.Context(), tenantOf(c), actorOf(c), req)
	if err != nil {
		h.writeError(c, "create run", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: run})
}

// ListRuns handles GET /api/v1/runs?status=&limit=&offset=
func (h *Handlers) ListRuns(c *gin.Context) {
	limit, err := utils.ParseNonNegativeInt(c.Query("limit"), 0)
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	offset, err := utils.ParseNonNegativeInt(c.Query("offset"), 0)
	if err != nil {
		badRequest(c, "invalid offset")
		return
	}

	runs, err := h.services.Run.ListRuns(c.Request.Context(), tenantOf(c), entity.RunFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeError(c, "list runs", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: runs})
}

// GetRun handles GET /api/v1/runs/:id
func (h *Handlers) GetRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	run, err := h.services.Run.GetRun(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		h.writeError(c, "get run", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: run})
}

// GetRunItems handles GET /api/v1/runs/:id/items
func (h *Handlers) GetRunItems(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.services.Run.GetRunItems(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		h.writeError(c, "get run items", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// GetRunHistory handles GET /api/v1/runs/:id/history
func (h *Handlers) GetRunHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	history, err := h.services.History.Read(c.Request.Context(), tenantOf(c), id)
	if err != nil {
		h.writeError(c, "get run history", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *Handlers) DeleteRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Run.DeleteRun(c.Request.Context(), tenantOf(c), actorOf(c), id); err != nil {
		h.writeError(c, "delete run", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PrepareRun handles POST /api/v1/runs/:id/prepare
func (h *Handlers) PrepareRun(c *gin.Context) {
	h.transition(c, "prepare run", h.services.Run.PrepareRun)
}

// SubmitRun handles POST /api/v1/runs/:id/submit
func (h *Handlers) SubmitRun(c *gin.Context) {
	h.transition(c, "submit run", h.services.Run.SubmitRun)
}

// ApproveRun handles POST /api/v1/runs/:id/approve
func (h *Handlers) ApproveRun(c *gin.Context) {
	h.transition(c, "approve run", h.services.Run.ApproveRun)
}

// FinalizeRun handles POST /api/v1/runs/:id/finalize
func (h *Handlers) FinalizeRun(c *gin.Context) {
	h.transition(c, "finalize run", h.services.Run.FinalizeRun)
}

// RejectRun handles POST /api/v1/runs/:id/reject with an optional reason
func (h *Handlers) RejectRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	// the reason is optional, so an empty body of any length encoding is fine
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	run, err := h.services.Run.RejectRun(c.Request.Context(), tenantOf(c), actorOf(c), id, utils.SanitizeString(req.Reason))
	if err != nil {
		h.writeError(c, "reject run", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: run})
}

type transitionFunc func(ctx context.Context, tenantID string, actorID *int64, runID int64) (*entity.SalaryRun, error)

func (h *Handlers) transition(c *gin.Context, op string, fn transitionFunc) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	run, err := fn(c.Request.Context(), tenantOf(c), actorOf(c), id)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: run})
}

// pathID parses :id, writing a 400 when it is malformed
func pathID(c *gin.Context) (int64, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD date as UTC midnight
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return &t, nil
}
