package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
)

func newMetricsEngine(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	engine := gin.New()
	engine.Use(HTTPMetricsWithMeter(provider.Meter("http.server"), true))
	engine.GET("/api/v1/cash-sessions/:id", func(c *gin.Context) {
		c.Set(JWTTenantIDKey, "tenant-1")
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	engine.POST("/api/v1/receivables/settlements", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "EXCEEDS_OUTSTANDING"})
	})

	return engine, reader
}

func collectHTTPMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestHTTPMetrics_CountsRequestsByRoutePattern(t *testing.T) {
	engine, reader := newMetricsEngine(t)

	for _, id := range []string{"s-1", "s-2"} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cash-sessions/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "both requests share the route pattern")
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	route, found := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	require.True(t, found)
	assert.Equal(t, "/api/v1/cash-sessions/:id", route.AsString())

	status, found := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPStatusCode)
	require.True(t, found)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())
}

func TestHTTPMetrics_ErrorResponsesKeepTheirStatus(t *testing.T) {
	engine, reader := newMetricsEngine(t)

	body := strings.NewReader(`{"receipts":[]}`)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/receivables/settlements", body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	status, found := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPStatusCode)
	require.True(t, found)
	assert.Equal(t, int64(http.StatusUnprocessableEntity), status.AsInt64())
}

func TestHTTPMetrics_RecordsLatencyHistogram(t *testing.T) {
	engine, reader := newMetricsEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cash-sessions/s-1", nil))

	m, ok := collectHTTPMetric(t, reader, "http_server_request_duration_seconds")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	// Latency keeps cardinality down: method and route only, no status.
	_, found := hist.DataPoints[0].Attributes.Value(telemetry.AttrHTTPStatusCode)
	assert.False(t, found)
}

func TestHTTPMetrics_UnmatchedRouteIsBucketedAsUnknown(t *testing.T) {
	engine, reader := newMetricsEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	m, ok := collectHTTPMetric(t, reader, "http_server_request_total")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	route, found := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	require.True(t, found)
	assert.Equal(t, "unknown", route.AsString())
}

func TestHTTPMetrics_DisabledIsPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPMetrics_DisabledMeterProviderIsPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: mp}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
