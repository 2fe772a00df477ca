package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// stageBase holds the collaborators shared by the stage services
type stageBase struct {
	repos          Repositories
	uow            UnitOfWork
	locker         Locker
	eventPublisher shared.EventPublisher
	observer       StageObserver
	logger         *zap.Logger
}

func newStageBase(repos Repositories, uow UnitOfWork, locker Locker, logger *zap.Logger) stageBase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return stageBase{
		repos:    repos,
		uow:      uow,
		locker:   locker,
		observer: noopObserver{},
		logger:   logger,
	}
}

// SetEventPublisher sets the publisher that receives domain events after commit
func (b *stageBase) SetEventPublisher(publisher shared.EventPublisher) {
	b.eventPublisher = publisher
}

// SetObserver sets the stage instrumentation
func (b *stageBase) SetObserver(observer StageObserver) {
	if observer == nil {
		observer = noopObserver{}
	}
	b.observer = observer
}

// lockTrade acquires the per-trade lock
func (b *stageBase) lockTrade(ctx context.Context, tradeID string) (func(), error) {
	unlock, err := b.locker.Lock(ctx, "trade:"+tradeID)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("lock trade %s: %w", tradeID, shared.ErrLockNotAcquired)
	}
	if err != nil {
		return nil, fmt.Errorf("lock trade %s: %w", tradeID, err)
	}
	return unlock, nil
}

// loadTrade finds a trade, NOT_FOUND when missing
func (b *stageBase) loadTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	t, err := b.repos.Trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// publish hands committed events to the publisher. Audit is best effort,
// so a failure is logged and otherwise ignored.
func (b *stageBase) publish(ctx context.Context, events ...shared.DomainEvent) {
	if b.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := b.eventPublisher.Publish(ctx, events...); err != nil {
		b.logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// publishTrade publishes and clears the pending events of a trade
func (b *stageBase) publishTrade(ctx context.Context, t *trade.Trade) {
	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	b.publish(ctx, events...)
}
