package transport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sayan40020805/jusense-polls/auth"
	"github.com/sayan40020805/jusense-polls/logging"
)

const identityContextKey = "auth.identity"

// BearerAuthMiddleware resolves an Authorization: Bearer token into an
// identity claim on the request context. A missing header is allowed (votes
// may be anonymous); a present but invalid token is rejected.
func BearerAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		identity, err := auth.Parse(token, secret)
		if err != nil {
			logging.Log.Warnf("AUTH: rejected bearer token on %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// RequireAuth gates routes that need an authenticated caller.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); !ok {
			logging.Log.Warnf("AUTH: unauthenticated access attempt to %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity resolved by BearerAuthMiddleware.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}
