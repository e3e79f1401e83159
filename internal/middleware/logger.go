package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/response"
)

// ErrorLogger logs request errors and 5xx responses, and turns panics into a 500 envelope.
func ErrorLogger(log logrus.FieldLogger) gin.HandlerFunc {
	log = logging.OrDiscard(log)
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				requestEntry(log, c, start).
					WithField("stack", string(debug.Stack())).
					WithError(fmt.Errorf("%v", recovered)).
					Error("panic while handling request")
				response.Error(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
				c.Abort()
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					requestEntry(log, c, start).Error("request failed")
				}
				return
			}

			for _, err := range c.Errors {
				entry := requestEntry(log, c, start).WithField("type", fmt.Sprintf("%v", err.Type))
				if err.Meta != nil {
					entry = entry.WithField("meta", err.Meta)
				}
				entry.WithError(err.Err).Error("request error")
			}
		}()

		c.Next()
	}
}

func requestEntry(log logrus.FieldLogger, c *gin.Context, start time.Time) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"status":     c.Writer.Status(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"query":      c.Request.URL.RawQuery,
		"client_ip":  c.ClientIP(),
		"user_id":    c.GetString("user_id"),
		"role":       c.GetString("role"),
		"request_id": requestID(c),
		"latency":    time.Since(start).String(),
	})
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
