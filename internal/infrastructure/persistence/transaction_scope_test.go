package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/trade"
)

func TestGormTransactionScope_Do(t *testing.T) {
	t.Run("commits every write", func(t *testing.T) {
		db := newTestDB(t)
		tr := newStoredTrade(t, db, "Kenya")
		run := newTestRun(t, tr)

		err := NewGormTransactionScope(db).Do(t.Context(), func(ctx context.Context, repos workflow.Repositories) error {
			if err := repos.Compliance.Create(ctx, run); err != nil {
				return err
			}
			if err := tr.RecordCompliance(run.ID, trade.ComplianceStatus(run.Status), run.RiskScore); err != nil {
				return err
			}
			return repos.Trades.Save(ctx, tr)
		})
		require.NoError(t, err)

		found, err := NewGormTradeRepository(db).FindByID(t.Context(), tr.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, found.ComplianceRunID)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		tr := newStoredTrade(t, db, "Kenya")
		run := newTestRun(t, tr)
		boom := errors.New("boom")

		err := NewGormTransactionScope(db).Do(t.Context(), func(ctx context.Context, repos workflow.Repositories) error {
			if err := repos.Compliance.Create(ctx, run); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		runs, err := NewGormComplianceRunRepository(db).ListByTrade(t.Context(), tr.ID)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}
