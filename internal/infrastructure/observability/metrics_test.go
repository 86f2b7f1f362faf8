package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// counterSum adds up every data point of the named int64 counter.
func counterSum(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

// histogramCount returns the total observation count of the named
// float64 histogram.
func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string) uint64 {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok, "metric %s is not a float64 histogram", name)
			var total uint64
			for _, dp := range hist.DataPoints {
				total += dp.Count
			}
			return total
		}
	}
	return 0
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	ctx := context.Background()
	var m *Metrics

	m.RecordMessage(ctx, "acme")
	m.RecordDrop(ctx, "acme", "bot")
	m.RecordReconnect(ctx, "acme")
	m.RecordSkippedChannel(ctx, "acme", "not-found")
	m.AddConnectedTeams(ctx, 1)
	m.RecordDispatch(ctx, "console", time.Millisecond, nil)
	m.AddActiveRequest(ctx, 1)
	m.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
}

func TestMetricsMessageFlow(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordMessage(ctx, "acme")
	m.RecordMessage(ctx, "globex")
	m.RecordDrop(ctx, "acme", "subtype")
	m.RecordReconnect(ctx, "acme")
	m.RecordSkippedChannel(ctx, "acme", "not-a-member")
	m.AddConnectedTeams(ctx, 2)
	m.AddConnectedTeams(ctx, -1)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), counterSum(t, rm, "messages.received.total"))
	assert.Equal(t, int64(1), counterSum(t, rm, "messages.dropped.total"))
	assert.Equal(t, int64(1), counterSum(t, rm, "reconnect.attempts.total"))
	assert.Equal(t, int64(1), counterSum(t, rm, "channels.skipped.total"))
	assert.Equal(t, int64(1), counterSum(t, rm, "teams.connected"))
}

func TestMetricsRecordDispatch(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordDispatch(ctx, "console", 2*time.Millisecond, nil)
	m.RecordDispatch(ctx, "console", time.Millisecond, errors.New("stdout gone"))

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterSum(t, rm, "messages.rendered.total"))
	assert.Equal(t, int64(1), counterSum(t, rm, "handler.errors.total"))
	assert.Equal(t, uint64(2), histogramCount(t, rm, "handler.dispatch.duration"))
}

func TestMetricsRecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.AddActiveRequest(ctx, 1)
	m.RecordHTTPRequest(ctx, "GET", "/health", 200, 3*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/-/reload", 500, time.Millisecond)
	m.AddActiveRequest(ctx, -1)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), counterSum(t, rm, "http.requests.total"))
	assert.Equal(t, int64(0), counterSum(t, rm, "http.requests.active"))
	assert.Equal(t, uint64(2), histogramCount(t, rm, "http.request.duration"))
}
