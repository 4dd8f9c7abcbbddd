// Package middleware holds the gin middleware of the production API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin. Span names follow "METHOD /route/pattern".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TraceAttributes copies request attributes onto the active span. It runs
// after RequestID and Tenant so both values are known.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if tenant := GetTenantID(c); tenant != "" {
				span.SetAttributes(attribute.String("tenant_id", tenant))
			}
			if runID := c.Param("id"); runID != "" && isRunPath(c.FullPath()) {
				span.SetAttributes(attribute.String("production_run_id", runID))
			}
		}
		c.Next()
	}
}

func isRunPath(route string) bool {
	const prefix = "/api/v1/production/runs/"
	return len(route) > len(prefix) && route[:len(prefix)] == prefix
}

// SpanErrorMarker marks the span as failed for 4xx and 5xx responses.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		msg := "Client Error"
		switch {
		case status >= http.StatusInternalServerError:
			msg = "Internal Server Error"
		case status == http.StatusNotFound:
			msg = "Not Found"
		case status == http.StatusConflict:
			msg = "Conflict"
		case status == http.StatusUnprocessableEntity:
			msg = "Unprocessable Entity"
		case status == http.StatusTooManyRequests:
			msg = "Too Many Requests"
		}
		// otelgin sets its own blank error status on 5xx after this returns
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.status_text", msg),
		)
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("error.message", c.Errors.Last().Error()))
		}
	}
}
