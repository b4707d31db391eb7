package middleware

import (
	"net/http"
	"strings"

	"outlandish/models"
	"outlandish/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionUserKey = "sessionUser"

// SessionAuthMiddleware requires a valid session token, read from the session cookie or
// from a bearer Authorization header, and stores the caller in the gin context.
func SessionAuthMiddleware(secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c, cookieName)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sign in to continue"})
			return
		}

		user, err := utils.ParseSessionToken(tokenString, secret)
		if err != nil {
			zap.L().Debug("Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
			return
		}

		c.Set(sessionUserKey, user)
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// CurrentUser returns the caller set by SessionAuthMiddleware.
func CurrentUser(c *gin.Context) (*models.SessionUser, bool) {
	v, exists := c.Get(sessionUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.SessionUser)
	return user, ok && user != nil
}
