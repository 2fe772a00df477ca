package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/loadgen"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML run configuration")
	target := flag.String("target", "", "Service base URL (overrides config)")
	rate := flag.Float64("rate", 0, "Trades started per second (overrides config)")
	duration := flag.Duration("duration", 0, "Run length (overrides config)")
	workers := flag.Int("workers", 0, "Trades in flight at once (overrides config)")
	maxTrades := flag.Int("max-trades", 0, "Stop after this many trades (overrides config)")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9091")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "15:04:05.000",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg := loadgen.DefaultConfig()
	if *configPath != "" {
		if cfg, err = loadgen.LoadConfig(*configPath); err != nil {
			log.Fatal("Failed to load run configuration", zap.Error(err))
		}
	}
	if *target != "" {
		cfg.Target = *target
	}
	if *rate > 0 {
		cfg.Rate = *rate
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *maxTrades > 0 {
		cfg.MaxTrades = *maxTrades
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("TRADEFLOW_TOKEN")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid run configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := loadgen.NewMetrics()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("Serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	log.Info("Starting load run",
		zap.String("target", cfg.Target),
		zap.Float64("rate", cfg.Rate),
		zap.Int("workers", cfg.Workers),
		zap.Duration("duration", cfg.Duration),
		zap.Int("max_trades", cfg.MaxTrades),
	)

	summary := loadgen.NewRunner(cfg, metrics, log).Run(ctx)

	fields := []zap.Field{
		zap.Int("started", summary.Started),
		zap.Duration("elapsed", summary.Elapsed),
	}
	for outcome, n := range summary.Outcomes {
		fields = append(fields, zap.Int(string(outcome), n))
	}
	log.Info("Load run finished", fields...)

	if summary.Outcomes[loadgen.OutcomeError] > 0 || summary.Outcomes[loadgen.OutcomeVerifyFailed] > 0 {
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}
