package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/repos"
	"github.com/ironquote/ironquote-backend/internal/requestdata"
)

// TenantMiddleware resolves the calling tenant from the X-Tenant-ID header
// and stashes it (plus the acting user, when sent) in the request context.
// Identity/authz proper lives in the gateway in front of this service.
type TenantMiddleware struct {
	log        *logger.Logger
	tenantRepo repos.TenantRepo
}

func NewTenantMiddleware(log *logger.Logger, tenantRepo repos.TenantRepo) *TenantMiddleware {
	middlewareLog := log.With("middleware", "TenantMiddleware")
	return &TenantMiddleware{log: middlewareLog, tenantRepo: tenantRepo}
}

func (tm *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Tenant-ID header"})
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Tenant-ID header"})
			return
		}

		tenant, err := tm.tenantRepo.GetByID(c.Request.Context(), nil, tenantID)
		if err != nil {
			tm.log.Error("Tenant lookup failed", "error", err, "tenant_id", tenantID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
			return
		}
		if tenant == nil || !tenant.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown or inactive tenant"})
			return
		}

		rd := &requestdata.RequestData{
			TenantID: tenantID,
			Actor:    c.GetHeader("X-Actor"),
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
