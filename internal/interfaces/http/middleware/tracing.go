package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs copied from headers into spans.
const MaxRequestIDLength = 128

// TracingConfig configures the HTTP tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns the defaults used by the server.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "cashdesk",
		Enabled:     true,
	}
}

// Tracing returns the tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin so every request gets a server span named
// "METHOD route". The span is annotated with identity attributes by
// TracingAttributeInjector, which must sit later in the chain while the
// span is still recording.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passthrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

func annotateRequestSpan(c *gin.Context, span trace.Span) {
	if requestID := spanRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if tenantID := spanTenantID(c); tenantID != "" {
		span.SetAttributes(attribute.String("tenant_id", tenantID))
	}
	if userID, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := userID.(string); ok && id != "" {
			span.SetAttributes(attribute.String("user_id", id))
		}
	}
}

func spanRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok && id != "" {
			return id
		}
	}

	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

func spanTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(JWTTenantIDKey); exists {
		if id, ok := tenantID.(string); ok && id != "" {
			return id
		}
	}

	// Untrusted fallback for unauthenticated routes.
	headerTenantID := c.GetHeader("X-Tenant-ID")
	if _, err := uuid.Parse(headerTenantID); err == nil {
		return headerTenantID
	}
	return ""
}

// SpanErrorMarker flips the span status to error for 4xx/5xx responses.
// Place it after the tracing middleware in the chain.
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

		message := "Client Error"
		switch {
		case status >= http.StatusInternalServerError:
			message = "Internal Server Error"
		case status == http.StatusUnauthorized:
			message = "Unauthorized"
		case status == http.StatusForbidden:
			message = "Forbidden"
		case status == http.StatusNotFound:
			message = "Not Found"
		}

		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

// TracingAttributeInjector annotates the request span with request_id,
// tenant_id, and user_id. The tenant and user come from the JWT middleware
// when it has already run; the X-Tenant-ID header is accepted as a fallback
// only when it parses as a UUID, so unauthenticated callers cannot inject
// arbitrary trace data. Place it after both the tracing and JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateRequestSpan(c, span)
		}
		c.Next()
	}
}
