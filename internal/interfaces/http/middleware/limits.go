package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes. Declared oversize bodies are
// rejected up front; others fail when the handler reads past the cap.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// QueryLimit rejects query strings longer than maxLen bytes.
func QueryLimit(maxLen int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxLen > 0 && len(c.Request.URL.RawQuery) > maxLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Query is too long"})
			return
		}
		c.Next()
	}
}

// NoStore marks responses as uncacheable.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
