// Package testing provides in-memory OpenTelemetry providers and assertions
// for checking the spans and metrics pagebricks components emit.
//
//	tp := NewTestTraceProvider()
//	otel.SetTracerProvider(tp)
//	// ... render a page ...
//	span := NewSpanCollector(t, tp.Exporter).WithName("page.content").AssertCount(1).First()
//	AssertSpanAttribute(t, &span, "cache.hit", false)
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTraceProvider wraps the SDK TracerProvider and its in-memory exporter.
type TestTraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTestTraceProvider exports every span synchronously into memory.
func NewTestTraceProvider() *TestTraceProvider {
	exporter := tracetest.NewInMemoryExporter()
	return &TestTraceProvider{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		Exporter:       exporter,
	}
}

// TestMeterProvider wraps the SDK MeterProvider and a manual reader.
type TestMeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewTestMeterProvider collects metrics on demand.
func NewTestMeterProvider() *TestMeterProvider {
	reader := sdkmetric.NewManualReader()
	return &TestMeterProvider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
	}
}

// Collect reads every metric recorded so far.
func (tmp *TestMeterProvider) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tmp.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// SpanCollector filters exported spans fluently.
type SpanCollector struct {
	t     *testing.T
	spans tracetest.SpanStubs
}

// NewSpanCollector snapshots the spans exported so far.
func NewSpanCollector(t *testing.T, exporter *tracetest.InMemoryExporter) *SpanCollector {
	t.Helper()
	return &SpanCollector{t: t, spans: exporter.GetSpans()}
}

// Len is the number of spans in the selection.
func (sc *SpanCollector) Len() int { return len(sc.spans) }

// WithName narrows the selection to spans called name.
func (sc *SpanCollector) WithName(name string) *SpanCollector {
	var out tracetest.SpanStubs
	for _, s := range sc.spans {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return &SpanCollector{t: sc.t, spans: out}
}

// WithAttribute narrows the selection to spans carrying key=value.
func (sc *SpanCollector) WithAttribute(key string, value any) *SpanCollector {
	var out tracetest.SpanStubs
	for _, s := range sc.spans {
		for _, a := range s.Attributes {
			if string(a.Key) == key && matchesValue(a.Value, value) {
				out = append(out, s)
				break
			}
		}
	}
	return &SpanCollector{t: sc.t, spans: out}
}

// AssertCount fails unless the selection has expected spans.
func (sc *SpanCollector) AssertCount(expected int) *SpanCollector {
	sc.t.Helper()
	assert.Len(sc.t, sc.spans, expected)
	return sc
}

// First returns the first selected span and fails if there is none.
func (sc *SpanCollector) First() tracetest.SpanStub {
	sc.t.Helper()
	require.NotEmpty(sc.t, sc.spans, "no spans selected")
	return sc.spans[0]
}

func matchesValue(v attribute.Value, expected any) bool {
	switch e := expected.(type) {
	case string:
		return v.Type() == attribute.STRING && v.AsString() == e
	case bool:
		return v.Type() == attribute.BOOL && v.AsBool() == e
	case int:
		return v.Type() == attribute.INT64 && v.AsInt64() == int64(e)
	case int64:
		return v.Type() == attribute.INT64 && v.AsInt64() == e
	case float64:
		return v.Type() == attribute.FLOAT64 && v.AsFloat64() == e
	default:
		return false
	}
}

// AssertSpanAttribute checks that span carries key=expected.
func AssertSpanAttribute(t *testing.T, span *tracetest.SpanStub, key string, expected any) {
	t.Helper()
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			assert.True(t, matchesValue(a.Value, expected), "attribute %s value mismatch: got %s", key, a.Value.Emit())
			return
		}
	}
	assert.Failf(t, "attribute missing", "span %s has no attribute %s", span.Name, key)
}

// AssertSpanStatus checks the span status code.
func AssertSpanStatus(t *testing.T, span *tracetest.SpanStub, expected codes.Code) {
	t.Helper()
	assert.Equal(t, expected, span.Status.Code, "span %s status", span.Name)
}

// FindMetric returns the named metric, or nil.
func FindMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// SumInt64 totals the data points of an int64 counter, failing when the
// metric is missing or has another type.
func SumInt64(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := FindMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}
