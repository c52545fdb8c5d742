package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func sdktraceAttrs(kv ...attribute.KeyValue) []trace.SpanStartOption {
	return []trace.SpanStartOption{trace.WithAttributes(kv...)}
}

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestOTelTracer_Start_Quiet(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer("test")

	_, quiet := tracer.Start(context.Background(), "run:serve", ports.WithQuiet())
	quiet.End()
	_, loud := tracer.Start(context.Background(), "build")
	loud.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.True(t, attrs(spans[0])[telemetry.QuietAttribute].AsBool())
	_, ok := attrs(spans[1])[telemetry.QuietAttribute]
	assert.False(t, ok)
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	sr := setupRecorder(t)
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	tracer := telemetry.NewOTelTracer("test").WithRenderer(renderer)

	plan := []string{"remove-all-files", "copy-static"}
	renderer.EXPECT().OnPlanEmit(plan, "copy-static").Times(2)

	// Without a span in ctx only the renderer is notified.
	tracer.EmitPlan(context.Background(), plan, "copy-static")

	ctx, span := tracer.Start(context.Background(), "run:copy-static", ports.WithQuiet())
	tracer.EmitPlan(ctx, plan, "copy-static")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
}

func TestOTelSpan_RecordError(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer("test")

	_, span := tracer.Start(context.Background(), "build")
	span.RecordError(errors.New("bundle failed"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "bundle failed", spans[0].Status().Description)
}

func TestOTelSpan_SetAttribute(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer("test")

	_, span := tracer.Start(context.Background(), "build")
	span.SetAttribute("mode", "production")
	span.SetAttribute("artifacts", 2)
	span.SetAttribute("bytes", int64(1024))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("incremental", true)
	span.SetAttribute("deps", []string{"a", "b"})
	span.SetAttribute("other", struct{ X int }{X: 1})
	span.End()

	got := attrs(sr.Ended()[0])
	assert.Equal(t, "production", got["mode"].AsString())
	assert.Equal(t, int64(2), got["artifacts"].AsInt64())
	assert.Equal(t, int64(1024), got["bytes"].AsInt64())
	assert.InDelta(t, 0.5, got["ratio"].AsFloat64(), 0.0001)
	assert.True(t, got["incremental"].AsBool())
	assert.Equal(t, []string{"a", "b"}, got["deps"].AsStringSlice())
	assert.Equal(t, "{1}", got["other"].AsString())
}

func TestOTelSpan_Write(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer("test")

	_, span := tracer.Start(context.Background(), "build")
	n, err := span.Write([]byte("hello"))
	span.End()

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	newCtx, span := tracer.Start(ctx, "build", ports.WithQuiet())
	assert.Equal(t, ctx, newCtx)

	tracer.EmitPlan(ctx, []string{"build"}, "build")
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("boom"))
	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.End()
}
