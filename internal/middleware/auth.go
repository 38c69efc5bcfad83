package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/services"
)

// ContextUserIDKey is where RequireAuth and OptionalAuth store the
// authenticated user's id in the gin context.
const ContextUserIDKey = "user_id"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		userID, err := am.authService.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present and continues
// anonymously otherwise. Personalized endpoints degrade instead of rejecting.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			if userID, err := am.authService.ParseToken(tokenString); err == nil && userID != uuid.Nil {
				c.Set(ContextUserIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserIDFrom returns the authenticated user id set by the auth middleware.
func UserIDFrom(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	return ""
}
