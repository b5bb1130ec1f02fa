package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// SessionCookie carries the session token for page visitors.
const SessionCookie = "carpool_session"

const (
	userIDKey = "userID"
	claimsKey = "sessionClaims"
)

// SessionMiddleware reads a session token from the Authorization header or
// the session cookie and, when valid, stores the user id on the context.
// Requests without a valid session pass through anonymously.
func SessionMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token != "" {
			if claims, err := sessions.Validate(token); err == nil {
				c.Set(userIDKey, claims.UserID)
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests that SessionMiddleware did not authenticate.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidSession.Error()})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// Claims returns the session claims, or nil for anonymous requests.
func Claims(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
