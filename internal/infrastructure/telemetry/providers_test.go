package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("tradeflow", "")
	require.NoError(t, err)
	v, ok := res.Set().Value("service.version")
	require.True(t, ok)
	assert.Equal(t, "dev", v.AsString())
}

func TestBridge_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Bridge(base, nil, "tradeflow", zapcore.InfoLevel))

	lp := &LoggerProvider{}
	assert.Same(t, base, Bridge(base, lp, "tradeflow", zapcore.InfoLevel))
}

func TestMinLevelCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &minLevelCore{Core: inner, min: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("trade_id", "TRD-1"))

	logger.Info("hop settled")
	logger.Warn("hop retried")
	logger.Error("hop failed")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "hop retried", logs.All()[0].Message)
	assert.Equal(t, "TRD-1", logs.All()[1].ContextMap()["trade_id"])
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}
