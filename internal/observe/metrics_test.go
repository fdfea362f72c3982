package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordRemoteRequest_OKDoesNotCountAsError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRemoteRequest(ctx, "getEntityInfo", "ok")

	rm := collect(t, reader)
	reqs := findMetric(rm, "rustlink.remote.requests")
	if reqs == nil {
		t.Fatal("rustlink.remote.requests not recorded")
	}
	if errs := findMetric(rm, "rustlink.remote.errors"); errs != nil {
		t.Error("ok status must not increment the error counter")
	}
}

func TestRecordRemoteRequest_FailureCountsAsError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRemoteRequest(ctx, "setEntityValue", "remote_error")
	m.RecordRemoteRequest(ctx, "setEntityValue", "not_connected")

	rm := collect(t, reader)
	errs := findMetric(rm, "rustlink.remote.errors")
	if errs == nil {
		t.Fatal("rustlink.remote.errors not recorded")
	}
	sum, ok := errs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("errors data = %T, want Sum[int64]", errs.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("error total = %d, want 2", total)
	}
}

func TestRecordSocketState(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSocketState(ctx, true)
	m.RecordSocketState(ctx, false)
	m.RecordSocketState(ctx, true)

	rm := collect(t, reader)
	g := findMetric(rm, "rustlink.socket.connected")
	if g == nil {
		t.Fatal("rustlink.socket.connected not recorded")
	}
	sum, ok := g.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("gauge data = %T, want Sum[int64]", g.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 1 {
		t.Errorf("connected gauge = %d, want 1", total)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.042)

	rm := collect(t, reader)
	h := findMetric(rm, "rustlink.http.request.duration")
	if h == nil {
		t.Fatal("rustlink.http.request.duration not recorded")
	}
	hist, ok := h.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("histogram data = %T, want Histogram[float64]", h.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("histogram datapoints = %+v, want one observation", hist.DataPoints)
	}
}
