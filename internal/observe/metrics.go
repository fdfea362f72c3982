// Package observe provides application-wide observability primitives for
// rustlink: OpenTelemetry metrics, tracing helpers, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all rustlink metrics.
const meterName = "github.com/sisyphean/rustlink"

// Metrics holds all OpenTelemetry metric instruments for the bridge.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("route", ...);
	// route is the matched mux pattern, never the raw path.
	HTTPRequestDuration metric.Float64Histogram

	// RemoteRequests counts companion-socket requests. Use with attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	RemoteRequests metric.Int64Counter

	// RemoteErrors counts companion-socket failures by op.
	RemoteErrors metric.Int64Counter

	// SocketConnected tracks whether the companion socket is up (0 or 1).
	SocketConnected metric.Int64UpDownCounter

	// Broadcasts counts unsolicited server frames (entity changed, alarms).
	Broadcasts metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The
// remote round trip dominates request time, so the buckets stretch well
// past typical local-handler latencies.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("rustlink.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RemoteRequests, err = m.Int64Counter("rustlink.remote.requests",
		metric.WithDescription("Total companion-socket requests by op and status."),
	); err != nil {
		return nil, err
	}
	if met.RemoteErrors, err = m.Int64Counter("rustlink.remote.errors",
		metric.WithDescription("Total companion-socket failures by op."),
	); err != nil {
		return nil, err
	}
	if met.SocketConnected, err = m.Int64UpDownCounter("rustlink.socket.connected",
		metric.WithDescription("Whether the companion socket is connected (0 or 1)."),
	); err != nil {
		return nil, err
	}
	if met.Broadcasts, err = m.Int64Counter("rustlink.socket.broadcasts",
		metric.WithDescription("Total unsolicited frames received from the game server."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity
// at call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRemoteRequest records one companion-socket request with the
// standard attribute set, bumping the error counter on failure statuses.
func (m *Metrics) RecordRemoteRequest(ctx context.Context, op, status string) {
	m.RemoteRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
	if status != "ok" {
		m.RemoteErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("op", op)),
		)
	}
}

// RecordSocketState moves the connected gauge to 1 or 0.
func (m *Metrics) RecordSocketState(ctx context.Context, connected bool) {
	if connected {
		m.SocketConnected.Add(ctx, 1)
	} else {
		m.SocketConnected.Add(ctx, -1)
	}
}

// RecordBroadcast counts one unsolicited server frame.
func (m *Metrics) RecordBroadcast(ctx context.Context) {
	m.Broadcasts.Add(ctx, 1)
}
