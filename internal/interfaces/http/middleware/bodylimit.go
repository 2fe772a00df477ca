package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects requests that declare a body larger than maxBytes and
// caps the reader for requests that do not declare a length.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
