package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/school-payroll/pkg/utils"
)

const (
	// HeaderTenantID carries the caller's tenant; every API call is scoped to it
	HeaderTenantID = "X-Tenant-ID"
	// HeaderActorID carries the acting user id; absent means a system action
	HeaderActorID = "X-Actor-ID"

	tenantKey = "tenant_id"
	actorKey  = "actor_id"
)

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"tenant_id", c.GetString(tenantKey),
		)
	}
}

// tenantMiddleware requires X-Tenant-ID and parses the optional X-Actor-ID
func tenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := utils.SanitizeString(c.GetHeader(HeaderTenantID))
		if tenantID == "" {
			badRequest(c, HeaderTenantID+" header is required")
			c.Abort()
			return
		}

		actorID, err := utils.ParseOptionalID(c.GetHeader(HeaderActorID))
		if err != nil {
			badRequest(c, "invalid "+HeaderActorID+" header")
			c.Abort()
			return
		}

		c.Set(tenantKey, tenantID)
		if actorID != nil {
			c.Set(actorKey, actorID)
		}
		c.Next()
	}
}

func tenantOf(c *gin.Context) string {
	return c.GetString(tenantKey)
}

func actorOf(c *gin.Context) *int64 {
	if v, ok := c.Get(actorKey); ok {
		if id, ok := v.(*int64); ok {
			return id
		}
	}
	return nil
}
