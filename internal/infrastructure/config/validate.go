package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == "postgres" || db.Driver == "sqlite", "database.driver must be postgres or sqlite, got %q", db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	wf := c.Workflow
	check(wf.StepDelay >= 0, "workflow.step_delay cannot be negative")
	check(wf.HopFailureRate >= 0 && wf.HopFailureRate <= 1, "workflow.hop_failure_rate must be within [0, 1], got %v", wf.HopFailureRate)
	check(wf.HashAlgorithm == "sha256" || wf.HashAlgorithm == "sha3-256",
		"workflow.hash_algorithm must be sha256 or sha3-256, got %q", wf.HashAlgorithm)
	check(wf.LockTTL >= time.Second, "workflow.lock_ttl must be at least 1s, got %s", wf.LockTTL)
	check(wf.LockRetry > 0 && wf.LockRetry < wf.LockTTL,
		"workflow.lock_retry must be positive and below workflow.lock_ttl, got %s", wf.LockRetry)
	check(wf.AuditBufferSize > 0, "workflow.audit_buffer_size must be positive")

	check(!c.JWT.Enabled || c.JWT.Secret != "", "jwt.secret is required when jwt.enabled is true")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be within [0, 1], got %v", c.Telemetry.SamplingRatio)

	if c.IsProduction() {
		check(db.Driver == "postgres", "database.driver must be postgres in production")
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be disable in production")
		check(!c.JWT.Enabled || len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain * in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be off in production")
	}

	return errors.Join(errs...)
}
