package middleware

import (
	"net/http"
	"strings"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// SkipPaths are paths served without a tenant (health checks)
	SkipPaths []string
}

// DefaultTenantConfig returns the default tenant configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics"},
	}
}

// Tenant requires a UUID X-Tenant-ID header on every request outside the
// skip list. The tenant is stored on the gin context and on the request
// context, where the logger and services pick it up.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := strings.TrimSpace(c.GetHeader(logger.TenantHeader))
		if raw == "" {
			abortMissingTenant(c, "X-Tenant-ID header is required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			abortMissingTenant(c, "X-Tenant-ID must be a UUID")
			return
		}

		c.Set(logger.GinTenantIDKey, tenantID)
		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortMissingTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithDetails(dto.ErrCodeMissingTenant, message, nil, GetRequestID(c)))
}

// GetTenantUUID returns the tenant set by Tenant, or uuid.Nil
func GetTenantUUID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(logger.GinTenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetTenantID returns the tenant as a string, empty when absent
func GetTenantID(c *gin.Context) string {
	if id := GetTenantUUID(c); id != uuid.Nil {
		return id.String()
	}
	return ""
}
