package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/school-payroll/internal/domain/payroll"
	"github.com/garyjia/school-payroll/internal/domain/workflow"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, payroll.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, payroll.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payroll.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, payroll.ErrZeroTotals), errors.Is(err, payroll.ErrFormula):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal errors are logged and hidden from the client.
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"operation", op,
			"tenant_id", c.GetString(tenantKey),
			"error", err,
		)
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
