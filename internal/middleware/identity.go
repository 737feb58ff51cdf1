package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/config"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// Trusted identity headers set by the authentication proxy in header mode.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// IdentityMiddleware resolves the caller identity and stores it in the
// context. A request without identity passes through anonymously; public
// routes such as the emergency lookup rely on that.
func IdentityMiddleware(cfg config.IdentityConfig) gin.HandlerFunc {
	if cfg.Mode == config.IdentityModeJWT {
		return jwtIdentity(cfg.JWTSecret)
	}
	return headerIdentity()
}

func headerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			c.Next()
			return
		}

		role := models.RolePatient
		if raw := c.GetHeader(HeaderUserRole); strings.TrimSpace(raw) != "" {
			role = models.ParseRole(raw)
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

func jwtIdentity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, models.ParseRole(string(claims.Role)))
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests. It must run after IdentityMiddleware.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).Present() {
			utils.Unauthorized(c, "Missing caller identity")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller identity, or the zero Identity when anonymous.
func GetIdentity(c *gin.Context) services.Identity {
	id, _ := c.Get(ctxUserID)
	role, _ := c.Get(ctxUserRole)

	idStr, _ := id.(string)
	r, _ := role.(models.Role)
	return services.Identity{ID: idStr, Role: r}
}
