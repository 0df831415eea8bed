package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/calendar/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClientKey is the context key for storing the authenticated client name.
const ClientKey contextKey = "client"

// GetClient extracts the client name from the context.
// Returns empty string if not found.
func GetClient(ctx context.Context) string {
	client, _ := ctx.Value(ClientKey).(string)
	return client
}

// RequireAuth returns a middleware that validates bearer JWTs and rejects
// requests without one. The client name is added to the request context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}

		// Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ctx := context.WithValue(c.Request.Context(), ClientKey, claims.Client)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
