package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// RequestLogger emits one structured line per request through the shared
// logger, so HTTP traffic lands in the same stream as module logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Health probes would flood the log.
		if c.Request.URL.Path == "/up" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("http request", fields...)
		} else {
			logger.Info("http request", fields...)
		}
	}
}

// ErrorLogger surfaces handler-attached errors that would otherwise only
// reach the client.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, err := range c.Errors {
			logger.Error("request error",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err.Error())
		}
	}
}
