package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequest(t *testing.T, handler gin.HandlerFunc, build func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(handler)
	engine.GET("/api/v1/cash-sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cash-sessions", nil)
	if build != nil {
		build(req)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCORSWithConfig_AllowedOriginIsEchoed(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://pos.lostcode.dev"}

	rec := runRequest(t, CORSWithConfig(cfg), func(req *http.Request) {
		req.Header.Set("Origin", "https://pos.lostcode.dev")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://pos.lostcode.dev", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSWithConfig_UnknownOriginGetsNoHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://pos.lostcode.dev"}

	rec := runRequest(t, CORSWithConfig(cfg), func(req *http.Request) {
		req.Header.Set("Origin", "https://evil.example.com")
	})

	assert.Equal(t, http.StatusOK, rec.Code, "request still served, browser enforces CORS")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithConfig_EmptyAllowListRejectsAll(t *testing.T) {
	rec := runRequest(t, CORSWithConfig(DefaultCORSConfig()), func(req *http.Request) {
		req.Header.Set("Origin", "https://pos.lostcode.dev")
	})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithConfig_WildcardWithoutCredentials(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}

	rec := runRequest(t, CORSWithConfig(cfg), func(req *http.Request) {
		req.Header.Set("Origin", "https://anywhere.example.com")
	})

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"),
		"credentials never combine with a wildcard origin")
}

func TestCORSWithConfig_PreflightAnsweredWith204(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://pos.lostcode.dev"}

	engine := gin.New()
	engine.Use(CORSWithConfig(cfg))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/receivables/settlements", nil)
	req.Header.Set("Origin", "https://pos.lostcode.dev")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://pos.lostcode.dev", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Max-Age"))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var ctxID string
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		ctxID = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	headerID := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, headerID)
	assert.Equal(t, headerID, ctxID)

	_, err := uuid.Parse(headerID)
	assert.NoError(t, err)
}

func TestRequestID_HonorsCallerProvidedID(t *testing.T) {
	rec := runRequest(t, RequestID(), func(req *http.Request) {
		req.Header.Set("X-Request-ID", "pos-terminal-42")
	})

	assert.Equal(t, "pos-terminal-42", rec.Header().Get("X-Request-ID"))
}

func TestSecure_DefaultHeaders(t *testing.T) {
	rec := runRequest(t, Secure(), nil)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS stays off until TLS is configured")
}

func TestSecureWithConfig_HSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	cfg.HSTSPreload = true

	rec := runRequest(t, SecureWithConfig(cfg), nil)

	hsts := rec.Header().Get("Strict-Transport-Security")
	assert.Contains(t, hsts, "max-age=31536000")
	assert.Contains(t, hsts, "includeSubDomains")
	assert.Contains(t, hsts, "preload")
}
