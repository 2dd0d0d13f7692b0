package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrolink/agrolink_api/internal/utils"
)

// JWTMiddleware guards admin routes with tokens issued by the web auth
// service.
type JWTMiddleware struct {
	limiter *FailureLimiter
}

func NewJWTMiddleware(limiter *FailureLimiter) *JWTMiddleware {
	return &JWTMiddleware{limiter: limiter}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if m.limiter != nil && m.limiter.Blocked(ip) {
			utils.Error(c, 429, "RATE_LIMITED", "Too many invalid attempts")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			if m.limiter != nil {
				m.limiter.Fail(ip)
			}
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}
		if claims.Role != utils.RoleAdmin {
			utils.Error(c, 403, "FORBIDDEN", "Admin role required")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
