package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures database instrumentation.
type DBConfig struct {
	Tracing            bool          // register otelgorm spans
	LogFullSQL         bool          // keep query variables in spans (dev only)
	DBSystem           string        // "postgresql" or "sqlite"
	SlowQueryThreshold time.Duration // default 200ms
}

// DBPlugin is a gorm plugin recording query metrics and flagging slow
// queries. With tracing on it also installs otelgorm.
type DBPlugin struct {
	config DBConfig
	meter  metric.Meter
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	registration   metric.Registration
}

// NewDBPlugin creates the plugin. Register it with db.Use.
func NewDBPlugin(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBPlugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	in := NewInstruments(meter)
	p := &DBPlugin{
		config:         cfg,
		meter:          meter,
		logger:         logger,
		queryTotal:     in.Counter("db_query_total", "Database queries by operation", "{query}"),
		queryDuration:  in.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets),
		slowQueryTotal: in.Counter("db_slow_query_total", "Queries slower than the threshold", "{query}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBPlugin) Name() string {
	return "tradeflow:db_telemetry"
}

// Initialize implements gorm.Plugin
func (p *DBPlugin) Initialize(db *gorm.DB) error {
	if p.config.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	registrations := []func() error{
		func() error {
			return cb.Create().Before("gorm:create").Register("db_telemetry:before_create", startQuery)
		},
		func() error { return cb.Query().Before("gorm:query").Register("db_telemetry:before_query", startQuery) },
		func() error {
			return cb.Update().Before("gorm:update").Register("db_telemetry:before_update", startQuery)
		},
		func() error {
			return cb.Delete().Before("gorm:delete").Register("db_telemetry:before_delete", startQuery)
		},
		func() error { return cb.Row().Before("gorm:row").Register("db_telemetry:before_row", startQuery) },
		func() error { return cb.Raw().Before("gorm:raw").Register("db_telemetry:before_raw", startQuery) },
		func() error {
			return cb.Create().After("gorm:create").Register("db_telemetry:after_create", p.finishQuery("INSERT"))
		},
		func() error {
			return cb.Query().After("gorm:query").Register("db_telemetry:after_query", p.finishQuery("SELECT"))
		},
		func() error {
			return cb.Update().After("gorm:update").Register("db_telemetry:after_update", p.finishQuery("UPDATE"))
		},
		func() error {
			return cb.Delete().After("gorm:delete").Register("db_telemetry:after_delete", p.finishQuery("DELETE"))
		},
		func() error { return cb.Row().After("gorm:row").Register("db_telemetry:after_row", p.finishQuery("")) },
		func() error { return cb.Raw().After("gorm:raw").Register("db_telemetry:after_raw", p.finishQuery("")) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := p.observePool(sqlDB); err != nil {
			return err
		}
	}

	p.logger.Info("Database telemetry enabled",
		zap.Bool("tracing", p.config.Tracing),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold),
	)
	return nil
}

type queryStartKey struct{}

func startQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (p *DBPlugin) finishQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)

		op := operation
		if op == "" {
			op = detectOperationType(db.Statement.SQL.String())
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		p.queryTotal.Inc(ctx, AttrDBOperation.String(op))
		p.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op))

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			RecordError(span, db.Error)
		}
		if elapsed <= p.config.SlowQueryThreshold {
			return
		}

		p.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.String("db.sql.table", table),
		))
		p.logger.Warn("Slow query",
			zap.String("operation", op),
			zap.String("table", table),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// observePool reports connection pool state on every collection
func (p *DBPlugin) observePool(sqlDB *sql.DB) error {
	conns, err := p.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	maxConns, err := p.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	p.registration, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	return err
}

// Close stops pool observation
func (p *DBPlugin) Close() error {
	if p.registration == nil {
		return nil
	}
	return p.registration.Unregister()
}

// detectOperationType reads the statement verb of raw SQL
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}
