package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// disabledProvider stands in when observability.enabled is false.
//
// It never touches the otel globals, so page.content spans, scheduler job
// spans and cache driver metrics go to whatever global is installed. In
// production that is otel's own no-op; tests install in-memory recorders
// and still see them.
type disabledProvider struct {
	tracers trace.TracerProvider
	meters  metric.MeterProvider
}

func newDisabledProvider() *disabledProvider {
	return &disabledProvider{
		tracers: noop.NewTracerProvider(),
		meters:  metricnoop.NewMeterProvider(),
	}
}

func (d *disabledProvider) Enabled() bool { return false }

func (d *disabledProvider) TracerProvider() trace.TracerProvider { return d.tracers }

func (d *disabledProvider) MeterProvider() metric.MeterProvider { return d.meters }

// Shutdown and ForceFlush have nothing buffered to hand off.
func (d *disabledProvider) Shutdown(context.Context) error   { return nil }
func (d *disabledProvider) ForceFlush(context.Context) error { return nil }
