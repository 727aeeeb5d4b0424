package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
)

func captureProfilingLabels(t *testing.T, cfg ProfilingConfig, path string, pre ...gin.HandlerFunc) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var labels map[string]string
	capture := func(c *gin.Context) {
		labels = map[string]string{}
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			labels[key] = value
			return true
		})
		c.Status(http.StatusOK)
	}

	engine := gin.New()
	engine.Use(pre...)
	engine.Use(ProfilingWithConfig(cfg))
	engine.GET("/api/v1/cash-sessions/:id", capture)
	engine.GET("/health", capture)
	engine.GET("/swagger/index.html", capture)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return labels
}

func TestProfiling_LabelsRequestGoroutine(t *testing.T) {
	labels := captureProfilingLabels(t, DefaultProfilingConfig(), "/api/v1/cash-sessions/s-1")

	assert.Equal(t, "cash-sessions", labels[telemetry.ProfilingLabelController])
	assert.Equal(t, "/api/v1/cash-sessions/:id", labels[telemetry.ProfilingLabelRoute])
	assert.Equal(t, "GET", labels[telemetry.ProfilingLabelMethod])
}

func TestProfiling_TenantLabelFromJWTContext(t *testing.T) {
	setTenant := func(c *gin.Context) {
		c.Set(JWTTenantIDKey, "tenant-1")
		c.Next()
	}

	labels := captureProfilingLabels(t, DefaultProfilingConfig(), "/api/v1/cash-sessions/s-1", setTenant)
	assert.Equal(t, "tenant-1", labels[telemetry.ProfilingLabelTenantID])
}

func TestProfiling_SkipsHealthAndSwagger(t *testing.T) {
	for _, path := range []string{"/health", "/swagger/index.html"} {
		labels := captureProfilingLabels(t, DefaultProfilingConfig(), path)
		assert.NotContains(t, labels, telemetry.ProfilingLabelRoute, "path %s stays unlabeled", path)
	}
}

func TestProfiling_DisabledAddsNoLabels(t *testing.T) {
	labels := captureProfilingLabels(t, ProfilingConfig{Enabled: false}, "/api/v1/cash-sessions/s-1")
	assert.Empty(t, labels)
}

func TestControllerFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/cash-sessions/:id/entries", "cash-sessions"},
		{"/api/v1/receivables", "receivables"},
		{"/api/v2/receivables/:id", "receivables"},
		{"/health", "health"},
		{"", ""},
		{"unknown", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, controllerFromRoute(tt.route), "route: %q", tt.route)
	}
}
