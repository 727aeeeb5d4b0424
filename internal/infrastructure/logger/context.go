package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey string

const (
	loggerCtxKey    ctxKey = "logger"
	requestIDCtxKey ctxKey = "request_id"
	tenantIDCtxKey  ctxKey = "tenant_id"
	userIDCtxKey    ctxKey = "user_id"
)

// WithContext stores the logger in ctx so downstream code can recover it
// with FromContext or L.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID tags ctx and the logger with the request ID.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDCtxKey, requestID)
	tagged := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, tagged), tagged
}

// WithTenantID tags ctx and the logger with the tenant the request acts for.
// Every authenticated cashdesk request carries exactly one tenant.
func WithTenantID(ctx context.Context, logger *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, tenantIDCtxKey, tenantID)
	tagged := logger.With(zap.String("tenant_id", tenantID))
	return WithContext(ctx, tagged), tagged
}

// WithUserID tags ctx and the logger with the operator working the till.
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, userIDCtxKey, userID)
	tagged := logger.With(zap.String("user_id", userID))
	return WithContext(ctx, tagged), tagged
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

// GetTenantID returns the tenant ID stored in ctx, or "".
func GetTenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantIDCtxKey).(string)
	return id
}

// GetUserID returns the operator ID stored in ctx, or "".
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDCtxKey).(string)
	return id
}

// ContextLogger emits log entries enriched with whatever identity the
// context carries: trace and span IDs from the active span, plus the
// request, tenant and operator IDs set by the HTTP middleware.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L is the entry point the application services use:
//
//	logger.L(ctx).Info("cash session closed", zap.String("session_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

func (cl *ContextLogger) enriched() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	if spanCtx := trace.SpanContextFromContext(cl.ctx); spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(cl.ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if tenantID := GetTenantID(cl.ctx); tenantID != "" {
		l = l.With(zap.String("tenant_id", tenantID))
	}
	if userID := GetUserID(cl.ctx); userID != "" {
		l = l.With(zap.String("user_id", userID))
	}
	return l
}

// With returns a child ContextLogger carrying the extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enriched().Debug(msg, fields...)
}

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enriched().Info(msg, fields...)
}

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enriched().Warn(msg, fields...)
}

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enriched().Error(msg, fields...)
}

// Zap exposes the enriched zap.Logger for callers that need the raw type.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enriched()
}
