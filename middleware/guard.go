package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkarlin94/authledger"
)

const principalContextKey = "authledger/principal"

// PrincipalFromContext returns the principal stored by [Guard].
func PrincipalFromContext(c *gin.Context) (*authledger.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*authledger.Principal)
	return principal, ok
}

// Guard rejects requests without a valid bearer access token. On success
// the principal is attached to the Gin context.
func Guard(engine *authledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			abortUnauthorized(c)
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		principal, err := engine.Validate(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}
