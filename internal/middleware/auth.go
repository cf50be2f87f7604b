package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.JWTClaims, error)
}

// AuthMiddleware creates a JWT authentication middleware.
// A missing token is rejected with 401, an unusable one with 403.
// Browsers cannot set headers on websocket upgrades, so the token may
// also be passed as the "token" query parameter.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "Access token required")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				message = "Token expired"
			}
			response.Forbidden(c, message)
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(ContextKeyUserID, claims.UserID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	// Check Bearer prefix; any other scheme is a malformed token, not a missing one
	parts := strings.SplitN(authHeader, " ", 2)
	if !strings.EqualFold(parts[0], "bearer") {
		return authHeader, true
	}
	if len(parts) != 2 {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID gets the user ID from the gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
