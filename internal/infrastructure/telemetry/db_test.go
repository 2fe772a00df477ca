package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID   string `gorm:"primaryKey"`
	Note string
}

func openInstrumentedDB(t *testing.T, cfg DBConfig) (*gorm.DB, *DBPlugin) {
	t.Helper()
	meter, _ := newTestMeter(t)
	return openInstrumentedDBWithMeter(t, cfg, meter)
}

func TestDBPlugin_RecordsQueries(t *testing.T) {
	meter, reader := newTestMeter(t)
	db, plugin := openInstrumentedDBWithMeter(t, DBConfig{DBSystem: "sqlite"}, meter)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&ledgerRow{ID: "L-1", Note: "first"}).Error)
	var rows []ledgerRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.NoError(t, db.WithContext(ctx).Model(&ledgerRow{}).Where("id = ?", "L-1").Update("note", "second").Error)
	require.NoError(t, db.WithContext(ctx).Exec("DELETE FROM ledger_rows").Error)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(rm, "db_query_total", AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(1), counterValue(rm, "db_query_total", AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(1), counterValue(rm, "db_query_total", AttrDBOperation.String("UPDATE")))
	assert.Equal(t, int64(1), counterValue(rm, "db_query_total", AttrDBOperation.String("DELETE")))
	assert.Equal(t, uint64(1), histogramCount(rm, "db_query_duration_seconds", AttrDBOperation.String("INSERT")))

	_, ok := findMetric(rm, "db_pool_connections_max")
	assert.True(t, ok, "pool gauges are observed on collection")
	require.NoError(t, plugin.Close())
}

func TestDBPlugin_SlowQueries(t *testing.T) {
	meter, reader := newTestMeter(t)
	db, _ := openInstrumentedDBWithMeter(t, DBConfig{SlowQueryThreshold: time.Nanosecond}, meter)

	require.NoError(t, db.Create(&ledgerRow{ID: "L-1"}).Error)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(rm, "db_slow_query_total", AttrDBTable.String("ledger_rows")))
}

func TestDBPlugin_TracingSpans(t *testing.T) {
	sr := setupTestTracer(t)
	db, _ := openInstrumentedDB(t, DBConfig{Tracing: true, DBSystem: "sqlite"})

	ctx, span := StartSpan(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&ledgerRow{ID: "L-1"}).Error)
	span.End()

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "request")
	assert.Greater(t, len(names), 1, "otelgorm adds a span per statement")
}

func TestNewDBPlugin_Defaults(t *testing.T) {
	meter, _ := newTestMeter(t)
	p, err := NewDBPlugin(meter, DBConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThreshold)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.NoError(t, p.Close())
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM trades":           "SELECT",
		"  insert into trades values()":  "INSERT",
		"update trades set status = ?":   "UPDATE",
		"DELETE FROM audit_events":       "DELETE",
		"CREATE INDEX idx ON trades(id)": "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperationType(sql), sql)
	}
}

func openInstrumentedDBWithMeter(t *testing.T, cfg DBConfig, meter metric.Meter) (*gorm.DB, *DBPlugin) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&ledgerRow{}))

	plugin, err := NewDBPlugin(meter, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Use(plugin))
	return db, plugin
}
