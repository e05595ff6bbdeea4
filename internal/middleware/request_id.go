package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/project-tracker-api/internal/constants"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing the client's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
