// Package logger provides the process-wide structured logger and the HTTP
// request logging middleware.
package logger

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Fields is an alias for logrus.Fields
type Fields = logrus.Fields

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)

	if os.Getenv("HARBORMASTER_ENV") == "production" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return l
}

// SetLevel sets the logging level; unrecognized names keep the current level.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, keeping current")
		return
	}
	log.SetLevel(parsed)
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// WithField returns an entry carrying one field.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// Info logs an info message.
func Info(msg string) {
	log.Info(msg)
}

// RequestLogger is echo middleware that tags every request with a generated
// id, logs its outcome, and stores a request-scoped entry in the context.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := xid.New().String()
			c.Set("request_id", reqID)

			entry := log.WithFields(Fields{
				"request_id": reqID,
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"ip":         c.RealIP(),
			})
			c.Set("logger", entry)

			err := next(c)

			status := c.Response().Status
			fields := Fields{
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if err != nil {
				fields["error"] = err.Error()
				c.Error(err)
			}

			outcome := entry.WithFields(fields)
			switch {
			case status >= 500:
				outcome.Error("Request failed")
			case status >= 400:
				outcome.Warn("Request error")
			default:
				outcome.Info("Request completed")
			}
			return err
		}
	}
}

// FromEcho returns the request-scoped entry stored by RequestLogger, or the
// base logger when called outside a request.
func FromEcho(c echo.Context) *logrus.Entry {
	if entry, ok := c.Get("logger").(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(log)
}
