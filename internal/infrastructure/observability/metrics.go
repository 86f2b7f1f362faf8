package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. All record methods are safe on
// a nil receiver so metrics stay optional.
type Metrics struct {
	meter metric.Meter

	// Message flow metrics
	MessagesReceivedTotal metric.Int64Counter
	MessagesDroppedTotal  metric.Int64Counter

	// Handler metrics
	MessagesRenderedTotal   metric.Int64Counter
	HandlerErrorsTotal      metric.Int64Counter
	HandlerDispatchDuration metric.Float64Histogram

	// Team connection metrics
	ReconnectAttemptsTotal metric.Int64Counter
	ChannelsSkippedTotal   metric.Int64Counter
	TeamsConnected         metric.Int64UpDownCounter

	// Ops server metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsActive  metric.Int64UpDownCounter
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	// Message flow metrics
	m.MessagesReceivedTotal, err = meter.Int64Counter(
		"messages.received.total",
		metric.WithDescription("Total number of channel messages accepted for dispatch"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages_received_total: %w", err)
	}

	m.MessagesDroppedTotal, err = meter.Int64Counter(
		"messages.dropped.total",
		metric.WithDescription("Total number of inbound events dropped before dispatch"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages_dropped_total: %w", err)
	}

	// Handler metrics
	m.MessagesRenderedTotal, err = meter.Int64Counter(
		"messages.rendered.total",
		metric.WithDescription("Total number of messages a handler processed successfully"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages_rendered_total: %w", err)
	}

	m.HandlerErrorsTotal, err = meter.Int64Counter(
		"handler.errors.total",
		metric.WithDescription("Total number of handler dispatch failures"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handler_errors_total: %w", err)
	}

	m.HandlerDispatchDuration, err = meter.Float64Histogram(
		"handler.dispatch.duration",
		metric.WithDescription("Handler dispatch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handler_dispatch_duration: %w", err)
	}

	// Team connection metrics
	m.ReconnectAttemptsTotal, err = meter.Int64Counter(
		"reconnect.attempts.total",
		metric.WithDescription("Total number of scheduled reconnect attempts"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reconnect_attempts_total: %w", err)
	}

	m.ChannelsSkippedTotal, err = meter.Int64Counter(
		"channels.skipped.total",
		metric.WithDescription("Total number of configured channels excluded at subscription"),
		metric.WithUnit("{channels}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating channels_skipped_total: %w", err)
	}

	m.TeamsConnected, err = meter.Int64UpDownCounter(
		"teams.connected",
		metric.WithDescription("Number of teams holding a live connection"),
		metric.WithUnit("{teams}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating teams_connected: %w", err)
	}

	// Ops server metrics
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}

	m.HTTPRequestsActive, err = meter.Int64UpDownCounter(
		"http.requests.active",
		metric.WithDescription("Number of HTTP requests currently in flight"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_active: %w", err)
	}

	return m, nil
}

// RecordMessage records one accepted channel message.
func (m *Metrics) RecordMessage(ctx context.Context, team string) {
	if m == nil {
		return
	}
	m.MessagesReceivedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
	))
}

// RecordDrop records one inbound event dropped during demultiplexing.
func (m *Metrics) RecordDrop(ctx context.Context, team, reason string) {
	if m == nil {
		return
	}
	m.MessagesDroppedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
		attribute.String("reason", reason),
	))
}

// RecordReconnect records one scheduled reconnect attempt.
func (m *Metrics) RecordReconnect(ctx context.Context, team string) {
	if m == nil {
		return
	}
	m.ReconnectAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
	))
}

// RecordSkippedChannel records one channel excluded at subscription time.
func (m *Metrics) RecordSkippedChannel(ctx context.Context, team, reason string) {
	if m == nil {
		return
	}
	m.ChannelsSkippedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
		attribute.String("reason", reason),
	))
}

// AddConnectedTeams moves the connected-teams gauge by delta.
func (m *Metrics) AddConnectedTeams(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.TeamsConnected.Add(ctx, delta)
}

// RecordDispatch records one handler dispatch outcome.
func (m *Metrics) RecordDispatch(ctx context.Context, handler string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("handler", handler))

	m.HandlerDispatchDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.HandlerErrorsTotal.Add(ctx, 1, attrs)
		return
	}
	m.MessagesRenderedTotal.Add(ctx, 1, attrs)
}

// AddActiveRequest moves the in-flight request gauge by delta.
func (m *Metrics) AddActiveRequest(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPRequestsActive.Add(ctx, delta)
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
