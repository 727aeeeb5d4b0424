package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lostcode-dev/cashdesk/internal/interfaces/http/dto"
)

// BodyLimit caps the request body size. Settlement batches are the largest
// payloads the API accepts; anything past maxBytes is rejected with 413
// before a handler ever sees it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		// Chunked requests report no ContentLength; the limited reader
		// catches those once a handler reads the body.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
