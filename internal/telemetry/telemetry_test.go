package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTestProviders swaps the globals for in-memory ones.
func installTestProviders(t *testing.T) (*tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	prevTP := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))

	reader := sdkmetric.NewManualReader()
	prevMP := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})
	return spans, reader
}

func TestStartToolCall(t *testing.T) {
	spans, reader := installTestProviders(t)

	rec, err := NewRecorder()
	require.NoError(t, err)

	ctx := context.Background()
	_, done := rec.StartToolCall(ctx, "write-data")
	done(nil)
	_, done = rec.StartToolCall(ctx, "write-data")
	done(errors.New("boom"))

	ended := spans.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, "mcp.tool.call", ended[0].Name())
	require.Contains(t, ended[0].Attributes(), attribute.String("mcp.tool.name", "write-data"))
	require.Equal(t, codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var calls *metricdata.Sum[int64]
	var sawDuration bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "mcp.tool.calls":
				sum := m.Data.(metricdata.Sum[int64])
				calls = &sum
			case "mcp.tool.duration":
				sawDuration = true
			}
		}
	}
	require.NotNil(t, calls)
	require.True(t, sawDuration)

	var total int64
	for _, dp := range calls.DataPoints {
		total += dp.Value
	}
	require.EqualValues(t, 2, total)
	require.Len(t, calls.DataPoints, 2, "ok and error outcomes are separate series")
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	ctx, done := rec.StartToolCall(context.Background(), "x")
	require.NotNil(t, ctx)
	done(nil)
	rec.RecordResourceRead(ctx, "influxdb://orgs", nil)
}

func TestSetup(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	shutdown, err := Setup(context.Background(), ExporterNone, "svc", "v", nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = Setup(context.Background(), "zipkin", "svc", "v", nil)
	require.Error(t, err)

	var buf bytes.Buffer
	shutdown, err = Setup(context.Background(), ExporterStdout, "svc", "v", &buf)
	require.NoError(t, err)

	rec, err := NewRecorder()
	require.NoError(t, err)
	_, done := rec.StartToolCall(context.Background(), "query-data")
	done(nil)

	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "mcp.tool.calls")
}
