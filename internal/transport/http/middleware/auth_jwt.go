package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/core/auth"
	"go-classifieds/internal/domain"
	resp "go-classifieds/internal/transport/http/response"
)

// AuthJWT 解析 Bearer token，写入 userId/role 供后续 handler 使用
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.WriteError(c, domain.NewAuth("missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.WriteError(c, domain.NewAuth("invalid token"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole 放在 AuthJWT 之后
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			resp.WriteError(c, domain.NewForbidden("forbidden"))
			return
		}
		c.Next()
	}
}
