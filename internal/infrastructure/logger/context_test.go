package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	base := zap.NewExample()
	ctx := WithContext(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))

	ctx = WithContext(context.Background(), nil)
	assert.NotNil(t, FromContext(ctx))
}

func TestFields(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, Fields(context.Background()))
	})

	t.Run("trace request and trade", func(t *testing.T) {
		ctx := WithTradeID(WithRequestID(spanContext(t), "req-1"), "TRD-42")

		enc := zapcore.NewMapObjectEncoder()
		for _, f := range Fields(ctx) {
			f.AddTo(enc)
		}
		assert.Equal(t, map[string]any{
			"trace_id":   "4bf92f3577b34da6a3ce929d0e0e4736",
			"span_id":    "00f067aa0ba902b7",
			"request_id": "req-1",
			"trade_id":   "TRD-42",
		}, enc.Fields)
	})
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithTradeID(ctx, "TRD-7")

	L(ctx).Info("Compliance run recorded", zap.Bool("eligible", true))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "TRD-7", fields["trade_id"])
	assert.Equal(t, true, fields["eligible"])
	assert.NotContains(t, fields, "request_id")
}

func TestEnrich_NilBase(t *testing.T) {
	assert.NotPanics(t, func() {
		Enrich(WithRequestID(context.Background(), "x"), nil).Info("dropped")
	})
}
