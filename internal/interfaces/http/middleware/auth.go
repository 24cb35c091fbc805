package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader is the header checked before the Authorization bearer token.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests that do not present key. An empty key disables the check.
func APIKey(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		token := c.GetHeader(APIKeyHeader)
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
