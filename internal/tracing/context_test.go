package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewTraceID(), NewTraceID())
	assert.NotEqual(t, NewRunID(), NewRunID())
	assert.NotEmpty(t, NewRunID())
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, GetSessionKey(ctx))

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRunID(ctx, "run-1")
	ctx = WithSessionKey(ctx, "neuro-san")

	tc := FromContext(ctx)
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Equal(t, "run-1", tc.RunID)
	assert.Equal(t, "neuro-san", tc.SessionKey)
}

func TestNewRunContext(t *testing.T) {
	ctx := NewRunContext(context.Background())
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetRunID(ctx))

	parent := WithTraceID(context.Background(), "trace-parent")
	first := NewRunContext(parent)
	second := NewRunContext(parent)
	assert.Equal(t, "trace-parent", GetTraceID(first))
	assert.NotEqual(t, GetRunID(first), GetRunID(second))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithRunID(WithTraceID(context.Background(), "trace-1"), "run-1")
	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.NotContains(t, out, "session_key")
}

func TestStartSpan(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("browseragent-test", "test"))

	ctx, span := StartSpan(context.Background(), "browseragent.test", "test.span")
	require.NotNil(t, span)
	assert.NotEmpty(t, GetTraceID(ctx))
	EndSpan(span, nil)
}

func TestNewFileExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := NewFileExporter(&buf)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	_, span := tp.Tracer("browseragent.test").Start(context.Background(), "agent.run")
	EndSpan(span, errors.New("boom"))
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"agent.run"`)
	assert.Contains(t, buf.String(), "boom")
}
