package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/infrastructure/migration"
	"github.com/tradeflow/backend/migrations"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// schemaCommand runs against a live postgres schema
type schemaCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var schemaCommands = map[string]schemaCommand{
	"up": func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	},
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Down()
	},
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
	"force": func(m *migration.Migrator, log *zap.Logger, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		log.Warn("Forcing migration version, the schema is not checked", zap.Int("version", v))
		return m.Force(v)
	},
}

func main() {
	migrationsPath := flag.String("path", "", "Read migrations from this directory instead of the embedded schema")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(log, *migrationsPath, args)
	_ = log.Sync()
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, migrationsPath string, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "create":
		return create(log, migrationsPath, rest)
	case "list":
		return list(migrationsPath)
	}

	exec, ok := schemaCommands[command]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("versioned migrations target postgres, %s databases are migrated at startup", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := newMigrator(db, log, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	return exec(m, log, rest)
}

// newMigrator reads the embedded schema unless a directory is given
func newMigrator(db *sql.DB, log *zap.Logger, migrationsPath string) (*migration.Migrator, error) {
	if migrationsPath == "" {
		return migration.New(db, log)
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, err
	}
	log.Info("Using migrations directory", zap.String("path", absPath))
	return migration.NewFromPath(db, absPath, log)
}

func create(log *zap.Logger, migrationsPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("migration name required: %w", errUsage)
	}
	dir := migrationsPath
	if dir == "" {
		dir = defaultMigrationsPath
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(migrationsPath string) error {
	var source fs.FS = migrations.FS
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
	}
	names, err := migration.ListMigrations(source)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No migrations found")
	}
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required: %w", what, errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Tradeflow schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Mark a version as applied without running it
  create <name> [desc]  Write the next up/down file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: schema embedded in the binary)
  -log-level string     debug, info, warn or error (default: info)

The database is configured through TRADEFLOW_DATABASE_* variables.`)
}
