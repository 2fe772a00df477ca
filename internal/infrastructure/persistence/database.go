package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tradeflow/backend/internal/infrastructure/config"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the gorm handle shared by every repository
type Database struct {
	DB *gorm.DB
}

type openOptions struct {
	logger  logger.Interface
	plugins []gorm.Plugin
}

// Option customises Open
type Option func(*openOptions)

// WithLogger routes gorm query logs through l
func WithLogger(l logger.Interface) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithPlugins registers instrumentation before the first query
func WithPlugins(plugins ...gorm.Plugin) Option {
	return func(o *openOptions) { o.plugins = append(o.plugins, plugins...) }
}

// Open connects, sizes the pool and pings within ctx. With cfg.AutoMigrate
// the tables are created from the models.
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{logger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, p := range o.plugins {
		if err := db.Use(p); err != nil {
			return nil, fmt.Errorf("register gorm plugin %s: %w", p.Name(), err)
		}
	}

	d := &Database{DB: db}
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	configurePool(pool, cfg)
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := d.AutoMigrate(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	// sqlite serialises writers, and ":memory:" is one database per connection
	if cfg.Driver == "sqlite" {
		maxOpen = 1
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return pool, nil
}

// AutoMigrate creates or alters the tables of every record kind
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping checks the database answers within ctx
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}
