package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Context keys the ingest handlers attach after parsing, so access logs tie
// back to HL7 message control ids and persisted record ids.
const (
	MessageControlIDKey = "message_control_id"
	MessageTypeKey      = "message_type"
	RecordIDKey         = "record_id"
)

// Logger returns request-logging middleware. Besides the usual request
// fields it emits any ingest correlation values the handler attached, which
// lets a stored record be traced from the access log without echoing any
// message content.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			evt = ingestFields(c, evt)
			evt.Msg("request")

			return err
		}
	}
}

// ingestFields copies ingest correlation values from the request context
// onto a log event, skipping whatever the handler did not set.
func ingestFields(c echo.Context, evt *zerolog.Event) *zerolog.Event {
	for _, key := range []string{MessageControlIDKey, MessageTypeKey, RecordIDKey} {
		if v, ok := c.Get(key).(string); ok && v != "" {
			evt = evt.Str(key, v)
		}
	}
	return evt
}
