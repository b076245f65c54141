package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder starts measuring a request and returns the function that completes it
type RequestRecorder interface {
	RequestStarted() func(method, route string, status int, elapsed time.Duration)
}

// HTTPMetrics records request count, latency and in-flight requests.
// Unmatched routes are reported as "unmatched" to keep label cardinality bounded.
func HTTPMetrics(recorder RequestRecorder, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		done := recorder.RequestStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
