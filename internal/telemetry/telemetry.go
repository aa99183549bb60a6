// Package telemetry records MCP tool and resource activity through
// OpenTelemetry. Instruments come from the global providers, so nothing is
// exported unless Setup installed real ones.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/aussiebroadwan/influxmcp"

// Exporters accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Outcome attribute values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder wraps the tracer and instruments used by the MCP dispatcher.
type Recorder struct {
	tracer        trace.Tracer
	toolCalls     metric.Int64Counter
	toolDuration  metric.Float64Histogram
	resourceReads metric.Int64Counter
}

// NewRecorder builds instruments from the current global providers.
func NewRecorder() (*Recorder, error) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	calls, err := meter.Int64Counter("mcp.tool.calls",
		metric.WithDescription("Number of MCP tool calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("mcp.tool.duration",
		metric.WithDescription("Duration of MCP tool calls"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	reads, err := meter.Int64Counter("mcp.resource.reads",
		metric.WithDescription("Number of MCP resource reads"),
		metric.WithUnit("{read}"))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		tracer:        otel.GetTracerProvider().Tracer(instrumentationName),
		toolCalls:     calls,
		toolDuration:  duration,
		resourceReads: reads,
	}, nil
}

// StartToolCall opens an mcp.tool.call span. The returned func ends the span
// and records the call count and duration; pass the call's error.
func (r *Recorder) StartToolCall(ctx context.Context, tool string) (context.Context, func(error)) {
	if r == nil {
		return ctx, func(error) {}
	}

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "mcp.tool.call",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("mcp.tool.name", tool)))

	return ctx, func(err error) {
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		attrs := metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("outcome", outcome),
		)
		r.toolCalls.Add(ctx, 1, attrs)
		r.toolDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// RecordResourceRead counts a resources/read call.
func (r *Recorder) RecordResourceRead(ctx context.Context, uri string, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.resourceReads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("uri", uri),
		attribute.String("outcome", outcome),
	))
}

// Setup installs global providers for the chosen exporter and returns a
// shutdown func that flushes them. ExporterNone leaves the no-op globals.
func Setup(ctx context.Context, exporter, serviceName, version string, w io.Writer) (func(context.Context) error, error) {
	switch exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", exporter)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	opts := []stdoutmetric.Option{stdoutmetric.WithPrettyPrint()}
	if w != nil {
		opts = append(opts, stdoutmetric.WithWriter(w))
	}
	metricExp, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(time.Minute))),
	)
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
