package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-docs/pkg/apperror"
)

// TenantMiddleware loads the tenant named in the token so requests for a
// deleted tenant stop at the edge
func TenantMiddleware(tenantRepo repository.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := GetTenantID(c)
		if tenantID == uuid.Nil {
			response.BadRequest(c, "Tenant context required")
			c.Abort()
			return
		}

		tenant, err := tenantRepo.GetByID(c.Request.Context(), tenantID)
		if err != nil {
			response.Error(c, apperror.NewIntegrationError(err))
			c.Abort()
			return
		}
		if tenant == nil {
			response.Error(c, apperror.NewNotFoundError("Tenant"))
			c.Abort()
			return
		}

		c.Set("tenant", tenant)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) uuid.UUID {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := tenantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
