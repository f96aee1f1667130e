package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the per-request trace id back to the caller.
const TraceIDHeader = "X-Trace-ID"

// TraceIDMiddleware tags every request with a fresh trace id, stored in the
// gin context under "trace_id" and echoed in the response headers.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.NewString()
		c.Set("trace_id", traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Next()
	}
}
