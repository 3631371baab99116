package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/respond"
	"github.com/Shailesh2302/CipherChat/internal/token"
)

// Session keys
const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
)

const principalKey = "principal"

// Principal identifies the authenticated account a request acts for.
type Principal struct {
	UserID   string
	Username string
}

// RequireAuth is a middleware that ensures the user is authenticated, either
// by the cookie session or by an "Authorization: Bearer" token.
func RequireAuth(tokens *token.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(sessionUserID).(string); ok && userID != "" {
			username, _ := session.Get(sessionUsername).(string)
			c.Set(principalKey, Principal{UserID: userID, Username: username})
			c.Next()
			return
		}

		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" && tokens != nil {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(principalKey, Principal{UserID: claims.Subject, Username: claims.Username})
				c.Next()
				return
			}
		}

		respond.Fail(c, http.StatusUnauthorized, "Not Authenticated")
		c.Abort()
	}
}

// PrincipalFrom returns the principal set by RequireAuth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func bearerToken(header string) string {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}
