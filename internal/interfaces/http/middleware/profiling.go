package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
)

// ProfilingConfig controls which requests get Pyroscope labels.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths lists exact paths to leave unlabeled, health probes mostly.
	SkipPaths []string
	// SkipPathPrefixes lists prefixes to leave unlabeled.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns the defaults used by the server.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// Profiling labels requests with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig attaches controller, route, method, and tenant labels
// to the request goroutine so CPU samples become sliceable in Pyroscope.
// A slow closing-report flame graph can then be narrowed to one tenant.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passthrough
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		route := routePattern(c)
		labels := telemetry.HTTPRequestLabels(
			controllerFromRoute(route),
			route,
			c.Request.Method,
			contextTenantID(c),
		)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute derives a controller label from the route pattern:
// "/api/v1/cash-sessions/:id/entries" becomes "cash-sessions". Route
// patterns keep the label low-cardinality.
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || part == "unknown" {
			continue
		}
		if isVersionSegment(part) || strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
