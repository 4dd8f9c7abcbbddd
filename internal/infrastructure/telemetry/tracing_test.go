package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "production_run", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, "run-1"))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAllocationCount, 2,
		telemetry.SpanAttrCostSource, "ACTUAL",
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "production_run.complete", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.SpanAttrRunID, "run-1"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int(telemetry.SpanAttrAllocationCount, 2))
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.SpanAttrCostSource, "ACTUAL"))
}

func TestRecordError(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "allocation.allocate")
	telemetry.RecordError(span, errors.New("insufficient stock"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "insufficient stock", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestAddEvent_UsesSpanFromContext(t *testing.T) {
	recorder := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "production_allocation", "allocate")
	batchID := uuid.New()
	telemetry.AddEvent(ctx, "batch_reserved",
		telemetry.SpanAttrBatchID, batchID,
		telemetry.SpanAttrQuantity, decimal.RequireFromString("1.50"),
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	event := spans[0].Events()[0]
	assert.Equal(t, "batch_reserved", event.Name)
	assert.Contains(t, event.Attributes, attribute.String(telemetry.SpanAttrBatchID, batchID.String()))
	assert.Contains(t, event.Attributes, attribute.String(telemetry.SpanAttrQuantity, "1.5"))
}

func TestNilSpanHelpersAreSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", 1)
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.AddEvent(context.Background(), "e")
	})
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestNewProviders_Disabled(t *testing.T) {
	p, err := telemetry.NewProviders(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Meter("test"))

	logger := zap.NewNop()
	assert.Same(t, logger, p.BridgeLogger(logger, zap.InfoLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}
