package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/sangkips/investify-docs/internal/infrastructure/repository"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-docs/pkg/utils"
)

// AuthMiddleware validates the bearer token and scopes the request to the
// tenant named in its claims
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		c.Set("user_permissions", claims.Permissions)
		c.Set("tenant_id", claims.TenantID)

		// Repositories read the tenant from the request context
		c.Request = c.Request.WithContext(infraRepo.WithTenant(c.Request.Context(), claims.TenantID))

		c.Next()
	}
}

// RequirePermission creates a middleware that requires a specific permission.
// Super admins pass every check.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permissions, exists := c.Get("user_permissions")
		if !exists {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		userPermissions, ok := permissions.([]string)
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		roles, _ := c.Get("user_roles")
		userRoles, _ := roles.([]string)

		if !slices.Contains(userPermissions, permission) && !slices.Contains(userRoles, "super-admin") {
			response.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
