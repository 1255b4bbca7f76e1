package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"asset-registry-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set for authenticated requests.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextTokenID  = "token_id"
)

// JWTAuthMiddleware validates the bearer token and stores the caller's
// identity in the gin context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		// browsers cannot set headers on websocket upgrades
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			slog.Debug("rejected token", "path", c.FullPath(), "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextTokenID, claims.ID)

		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
