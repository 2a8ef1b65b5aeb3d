package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/middleware/jwt"
)

// MiddlewareManager wires the auth middleware for the exchange and
// scheduler routes.
type MiddlewareManager struct {
	tokenManager *jwt.TokenManager
	logger       *zap.Logger
}

func NewMiddlewareManager(tokenManager *jwt.TokenManager, logger *zap.Logger) *MiddlewareManager {
	return &MiddlewareManager{
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// JWTAuth validates the bearer token and stores the caller's identity on
// the request context.
func (m *MiddlewareManager) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := m.tokenManager.ParseToken(parts[1])
		if err != nil {
			m.logger.Debug("token rejected", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("discord_id", claims.DiscordID)
		c.Set("is_admin", claims.Admin)
		c.Next()
	}
}

// AdminOnly rejects callers whose token does not carry the admin flag.
// Must run after JWTAuth.
func (m *MiddlewareManager) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_admin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
