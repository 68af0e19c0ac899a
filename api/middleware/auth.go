package middleware

import (
	"net/http"
	"strings"

	"chirp/services"

	"github.com/gin-gonic/gin"
)

const USER_ID_KEY = "user_id"

// TokenParser resolves an API token to a user id.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthMiddleware требует валидный Bearer JWT и кладет user_id в контекст
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required: provide Authorization Bearer token",
				"code":  services.CODE_UNAUTHORIZED,
			})
			return
		}

		userID, err := tokens.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
				"code":  services.CODE_UNAUTHORIZED,
			})
			return
		}
		c.Set(USER_ID_KEY, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware - middleware для опциональной аутентификации
func OptionalAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if userID, err := tokens.ParseToken(token); err == nil {
				c.Set(USER_ID_KEY, userID)
			}
		}
		c.Next()
	}
}
