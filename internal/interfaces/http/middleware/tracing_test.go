package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
	})

	return recorder
}

func recordedAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func newTracingEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(TracingWithConfig(TracingConfig{ServiceName: "cashdesk", Enabled: true}))
	engine.Use(handlers...)
	engine.Use(TracingAttributeInjector())
	engine.GET("/api/v1/receivables/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	engine.GET("/api/v1/receivables/:id/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
	})
	return engine
}

func TestTracing_CreatesServerSpanWithRequestID(t *testing.T) {
	recorder := setupSpanRecorder(t)
	engine := newTracingEngine()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	requestID, found := recordedAttr(spans[0], "request_id")
	require.True(t, found)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), requestID.AsString())
}

func TestTracing_TenantAndUserFromJWTContext(t *testing.T) {
	recorder := setupSpanRecorder(t)
	tenantID := uuid.NewString()

	engine := newTracingEngine(func(c *gin.Context) {
		c.Set(JWTTenantIDKey, tenantID)
		c.Set(JWTUserIDKey, "caixa01")
		c.Next()
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	tenant, found := recordedAttr(spans[0], "tenant_id")
	require.True(t, found)
	assert.Equal(t, tenantID, tenant.AsString())

	user, found := recordedAttr(spans[0], "user_id")
	require.True(t, found)
	assert.Equal(t, "caixa01", user.AsString())
}

func TestTracing_HeaderTenantMustBeUUID(t *testing.T) {
	recorder := setupSpanRecorder(t)
	engine := newTracingEngine()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1", nil)
	req.Header.Set("X-Tenant-ID", "not-a-uuid'; DROP TABLE receivables;--")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	_, found := recordedAttr(spans[0], "tenant_id")
	assert.False(t, found, "malformed header tenant never reaches the span")
}

func TestTracing_HeaderTenantAcceptedWhenUUID(t *testing.T) {
	recorder := setupSpanRecorder(t)
	engine := newTracingEngine()
	tenantID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1", nil)
	req.Header.Set("X-Tenant-ID", tenantID)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	tenant, found := recordedAttr(spans[0], "tenant_id")
	require.True(t, found)
	assert.Equal(t, tenantID, tenant.AsString())
}

func TestSpanErrorMarker_FlagsErrorResponses(t *testing.T) {
	recorder := setupSpanRecorder(t)
	engine := newTracingEngine(SpanErrorMarker())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Not Found", spans[0].Status().Description)
}

func TestSpanErrorMarker_LeavesSuccessAlone(t *testing.T) {
	recorder := setupSpanRecorder(t)
	engine := newTracingEngine(SpanErrorMarker())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/receivables/r-1", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_DisabledCreatesNoSpans(t *testing.T) {
	recorder := setupSpanRecorder(t)
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, recorder.Ended())
}
