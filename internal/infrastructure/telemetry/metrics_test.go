package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
)

// newTestMeter builds a meter backed by a manual reader so tests can collect
// and inspect recorded data points directly.
func newTestMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return provider.Meter("cashdesk_test"), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("cashdesk"))
	assert.NoError(t, mp.Shutdown(context.Background()))
	assert.NoError(t, mp.ForceFlush(context.Background()))
}

func TestCounter_AddAndInc(t *testing.T) {
	meter, reader := newTestMeter(t)

	counter, err := telemetry.NewCounter(meter, "cashdesk_receipt_total", "Receipts recorded", "{receipts}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 2, telemetry.AttrPaymentMethod.String("CASH"))
	counter.Inc(ctx, telemetry.AttrPaymentMethod.String("CASH"))

	rm := collectMetrics(t, reader)
	m, ok := findMetric(rm, "cashdesk_receipt_total")
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	method, ok := sum.DataPoints[0].Attributes.Value(telemetry.AttrPaymentMethod)
	require.True(t, ok)
	assert.Equal(t, "CASH", method.AsString())
}

func TestHistogram_RecordDuration(t *testing.T) {
	meter, reader := newTestMeter(t)

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Description: "Request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	hist.RecordDuration(context.Background(), 250*time.Millisecond, telemetry.AttrHTTPRoute.String("/api/v1/cash-sessions"))

	rm := collectMetrics(t, reader)
	m, ok := findMetric(rm, "http_request_duration_seconds")
	require.True(t, ok)

	data, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, uint64(1), data.DataPoints[0].Count)
	assert.InDelta(t, 0.25, data.DataPoints[0].Sum, 0.001)
}

func TestGauge_RecordKeepsLastValue(t *testing.T) {
	meter, reader := newTestMeter(t)

	gauge, err := telemetry.NewGauge(meter, "db_pool_connections", "Pool connections", "{connection}")
	require.NoError(t, err)

	ctx := context.Background()
	gauge.Record(ctx, 10, telemetry.AttrDBState.String("idle"))
	gauge.Record(ctx, 4, telemetry.AttrDBState.String("idle"))

	rm := collectMetrics(t, reader)
	m, ok := findMetric(rm, "db_pool_connections")
	require.True(t, ok)

	data, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, int64(4), data.DataPoints[0].Value)
}

func TestFloatGauge_Record(t *testing.T) {
	meter, reader := newTestMeter(t)

	gauge, err := telemetry.NewFloatGauge(meter, "cashdesk_expected_balance", "Expected cash balance", "BRL")
	require.NoError(t, err)

	gauge.Record(context.Background(), 1234.56)

	rm := collectMetrics(t, reader)
	m, ok := findMetric(rm, "cashdesk_expected_balance")
	require.True(t, ok)

	data, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, 1234.56, data.DataPoints[0].Value)
}
