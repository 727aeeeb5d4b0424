package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Kept low-cardinality so Pyroscope can aggregate:
// tenant and route slice the flame graphs, never per-receipt identifiers.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelTenantID   = "tenant_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength caps label values to keep Pyroscope memory bounded.
const MaxLabelValueLength = 128

// HighCardinalityLabels are keys sanitizeLabels silently drops. tenant_id
// is deliberately absent: tenant counts stay low enough to label on.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"receipt_id": true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the labels attached to its goroutine's
// pprof context, so the samples show up sliceable in Pyroscope:
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "SettlementHandler",
//	    "operation":  "CommitBatch",
//	}, func(c context.Context) {
//	    settleBatch(c)
//	})
//
// The map is copied before use, so the caller may reuse it.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	labelPairs := copyAndSanitize(labels)
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(labelPairs...), fn)
}

// WithPprofLabels is the same mechanism through Go's native pprof API, for
// output consumed by standard Go tooling rather than Pyroscope.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	labelPairs := copyAndSanitize(labels)
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(labelPairs...), fn)
}

func copyAndSanitize(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	labelsCopy := make(map[string]string, len(labels))
	maps.Copy(labelsCopy, labels)
	return sanitizeLabels(labelsCopy)
}

// ProfilingScope accumulates labels before running a block under them.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope starts a scope from an initial label set.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	scope := &ProfilingScope{labels: make(map[string]string)}
	maps.Copy(scope.labels, labels)
	return scope
}

// WithLabel adds one label.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController adds the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute adds the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod adds the HTTP method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithTenantID adds the tenant label.
func (s *ProfilingScope) WithTenantID(tenantID string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelTenantID, tenantID)
}

// WithOperation adds the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion adds the code-region label ("db_query", "report_render").
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the accumulated labels.
func (s *ProfilingScope) Labels() map[string]string {
	result := make(map[string]string, len(s.labels))
	maps.Copy(result, s.labels)
	return result
}

// Run executes fn under the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// sanitizeLabels drops high-cardinality and empty labels, truncates long
// values, normalizes keys, and returns deterministic key/value pairs.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}
		pairs = append(pairs, sanitizedKey, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and strips everything outside
// [a-z0-9_], mapping spaces and dashes to underscores first.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}

// HTTPRequestLabels builds the standard label set the HTTP middleware uses.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 4)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if tenantID != "" {
		labels[ProfilingLabelTenantID] = tenantID
	}
	return labels
}

// OperationLabels builds labels for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)
	return labels
}

// RegionLabels builds labels for a code region.
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extraLabels)
	return labels
}
