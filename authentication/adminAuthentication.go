package authentication

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware only admits tokens of administrator accounts.
func AdminAuthMiddleware(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing the authorization header"})
			return
		}
		claims, err := AuthenticateUser(key, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
