package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func aggregation(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Aggregation {
	t.Helper()
	m, ok := findMetric(collect(t, reader), name)
	require.True(t, ok, name)
	return m.Data
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx := context.Background()

	in := NewInstruments(provider.Meter("test"))
	trades := in.Counter("trades_total", "Trades", "{trade}")
	latency := in.Histogram("stage_seconds", "Stage latency", "s", StageDurationBuckets)
	inflight := in.Gauge("stages_inflight", "Stages running", "{stage}")
	require.NoError(t, in.Err())

	trades.Inc(ctx, AttrStage.String("compliance"))
	trades.Inc(ctx, AttrStage.String("compliance"))
	latency.RecordDuration(ctx, 1500*time.Millisecond)
	done := inflight.Track(ctx)

	sum := aggregation(t, reader, "trades_total").(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	hist := aggregation(t, reader, "stage_seconds").(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, 1.5, hist.DataPoints[0].Sum)
	assert.Equal(t, StageDurationBuckets, hist.DataPoints[0].Bounds)

	assert.Equal(t, int64(1), aggregation(t, reader, "stages_inflight").(metricdata.Sum[int64]).DataPoints[0].Value)
	done()
	assert.Equal(t, int64(0), aggregation(t, reader, "stages_inflight").(metricdata.Sum[int64]).DataPoints[0].Value)
}

func TestInstruments_KeepsFirstError(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	in := NewInstruments(provider.Meter("test"))
	in.Counter("ok_total", "", "")
	in.Counter("1-not-a-valid-name", "", "")
	in.Gauge("", "", "")

	require.Error(t, in.Err())
	assert.Contains(t, in.Err().Error(), "1-not-a-valid-name")
}
