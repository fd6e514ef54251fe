package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// requestLogger logs every request at debug level. At the default info
// level nothing is written per request.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !logger.IsLevelEnabled(logrus.DebugLevel) {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"latency": time.Since(start),
		})
		if raw != "" {
			entry = entry.WithField("query", raw)
		}
		entry.Debug("Request completed")
	}
}

// methodGuard rejects everything but GET and HEAD with 501
func methodGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			c.Next()
		default:
			c.String(http.StatusNotImplemented, "Unsupported method (%s)", c.Request.Method)
			c.Abort()
		}
	}
}
