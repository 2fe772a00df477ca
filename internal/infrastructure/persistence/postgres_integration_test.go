//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/audit"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/migration"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway postgres and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tradeflow_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_FullWorkflow(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	w := newTestWorkflow(db)

	tr := createWorkflowTrade(t, w)

	run, err := w.compliance.RunCompliance(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "passed", run.Status)

	offers, err := w.finance.GenerateOffers(ctx, tr.ID)
	require.NoError(t, err)
	require.NotEmpty(t, offers)

	accepted, err := w.finance.AcceptOffer(ctx, offers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)

	paid, err := w.payments.ExecutePayment(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", paid.Status)
	assert.True(t, paid.Amount.Equal(accepted.Amount))

	bundle, err := w.proofs.GenerateBundle(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, proof.AlgorithmSHA3256, bundle.HashAlgorithm)

	again, err := w.proofs.GenerateBundle(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, bundle.BundleID, again.BundleID)

	v, err := w.proofs.Verify(ctx, workflow.VerifyQuery{Query: bundle.MerkleRoot, Deep: true})
	require.NoError(t, err)
	assert.Equal(t, proof.ResultVerified, v.Result)

	final, err := w.trades.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", final.Status)
}

func TestPostgres_ConcurrentStages(t *testing.T) {
	db := newPostgresDB(t)
	w := newTestWorkflow(db)

	t.Run("one accepted offer per trade", func(t *testing.T) {
		assertOneOfferAccepted(t, db, w)
	})
	t.Run("compliance runs serialise", func(t *testing.T) {
		assertComplianceSerialised(t, db, w)
	})
}

func TestPostgres_AuditAppendIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	repo := NewGormAuditEventRepository(db)

	ev := audit.NewEvent("TRD-20260101-0001", trade.EventTypeTradeCreated, map[string]any{"route": "Germany → Kenya"})
	require.NoError(t, repo.Append(ctx, ev))
	require.NoError(t, repo.Append(ctx, ev))

	events, total, err := repo.List(ctx, shared.Filter{
		Page:     1,
		PageSize: 10,
		Filters:  map[string]any{"trade_id": "TRD-20260101-0001"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, events, 1)
}
