package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// LogApi emits one access-log line per request.
func LogApi() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		line := fmt.Sprintf("%s %s %s -> %d in %s from %s agent=%q",
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Request.UserAgent(),
		)
		if param.ErrorMessage != "" {
			line += " error=" + param.ErrorMessage
		}
		return line + "\n"
	})
}
