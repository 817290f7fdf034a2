package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/bundlespec"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal   metric.Int64Counter
	BuildDuration metric.Float64Histogram
	OutputBytes   metric.Int64Counter

	// Descriptor metrics
	ViolationsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
//
// Instruments are bound to the meter provider registered when this is first called, call
// InitTelemetry before it to export them.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"bundlespec.builds.total",
		metric.WithDescription("Total number of builds by status"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"bundlespec.builds.duration",
		metric.WithDescription("Duration of builds including artifact generation"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Counter(
		"bundlespec.outputs.bytes",
		metric.WithDescription("Total bytes written by the bundler"),
		metric.WithUnit("By"),
	)

	m.ViolationsTotal, _ = meter.Int64Counter(
		"bundlespec.validation.violations.total",
		metric.WithDescription("Total number of descriptor invariant violations reported"),
		metric.WithUnit("{violation}"),
	)

	return m
}
