package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/washa/backend/internal/auth"
)

const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextSessionID = "session_id"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// RequireAuth accepts the access cookie and, when allowBearer is set, an
// Authorization bearer token. The cookie wins when both are present.
func RequireAuth(authn Authenticator, allowBearer bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Request.Cookie(auth.AccessCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" && allowBearer {
			if scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
				token = strings.TrimSpace(value)
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextSessionID, claims.SessionID)
		c.Next()
	}
}
