package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"koemail/admin/internal/auth"
)

// APIAuth JSON API 的 Bearer 令牌守卫
type APIAuth struct {
	jwtManager *auth.JWTManager
	log        *zap.Logger
}

// NewAPIAuth 创建 API 守卫
func NewAPIAuth(jwtManager *auth.JWTManager, log *zap.Logger) *APIAuth {
	return &APIAuth{jwtManager: jwtManager, log: log}
}

// RequireAdmin 要求带管理员声明的有效令牌
func (a *APIAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := a.jwtManager.ValidateToken(token)
		if err != nil {
			a.log.Warn("invalid api token",
				zap.String("error", err.Error()),
				zap.String("ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		if !claims.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set(SessionKeyUserID, claims.UserID)
		c.Set(SessionKeyUserEmail, claims.Email)
		c.Set(SessionKeyIsAdmin, true)

		c.Next()
	}
}

// extractBearer 从 Authorization 头提取 Bearer 令牌
func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
