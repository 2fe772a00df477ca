package workflow

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// FinanceService generates and accepts finance offers
type FinanceService struct {
	stageBase
	quoter *finance.Quoter
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(
	repos Repositories,
	uow UnitOfWork,
	locker Locker,
	quoter *finance.Quoter,
	logger *zap.Logger,
) *FinanceService {
	return &FinanceService{
		stageBase: newStageBase(repos, uow, locker, logger),
		quoter:    quoter,
	}
}

// GenerateOffers quotes one offer per provider and moves the trade to
// finance_pending. A trade that already holds open or accepted offers gets
// those back and nothing new is created.
func (s *FinanceService) GenerateOffers(ctx context.Context, tradeID string) ([]FinanceOfferResponse, error) {
	var offers []finance.FinanceOffer
	err := s.observer.ObserveStage(ctx, trade.StageFinance, func(ctx context.Context) error {
		unlock, err := s.lockTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		defer unlock()

		t, err := s.loadTrade(ctx, tradeID)
		if err != nil {
			return err
		}

		existing, err := s.repos.Offers.FindByTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if live := liveOffers(existing); len(live) > 0 {
			offers = live
			return nil
		}

		if err := t.EnsureEligible(trade.StageFinance); err != nil {
			return err
		}
		offers, err = s.quoter.Quote(finance.QuoteRequest{
			TradeID:  t.ID,
			Amount:   t.EstimatedAmount,
			Currency: t.Currency,
		})
		if err != nil {
			return err
		}

		err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
			if err := repos.Offers.CreateBatch(ctx, offers); err != nil {
				return err
			}
			if err := t.MarkFinancePending(len(offers)); err != nil {
				return err
			}
			return repos.Trades.Save(ctx, t)
		})
		if err != nil {
			return err
		}
		s.publishTrade(ctx, t)

		s.logger.Info("Finance offers generated",
			zap.String("trade_id", t.ID),
			zap.Int("offer_count", len(offers)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToFinanceOfferResponses(offers), nil
}

// AcceptOffer accepts one offer, rejects its siblings and moves the trade
// to finance_accepted in one transaction. Accepting the already accepted
// offer again is a no-op.
func (s *FinanceService) AcceptOffer(ctx context.Context, offerID string) (*FinanceOfferResponse, error) {
	offer, err := s.repos.Offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	var chosen *finance.FinanceOffer
	err = s.observer.ObserveStage(ctx, trade.StageFinance, func(ctx context.Context) error {
		unlock, err := s.lockTrade(ctx, offer.TradeID)
		if err != nil {
			return err
		}
		defer unlock()

		offers, err := s.repos.Offers.FindByTrade(ctx, offer.TradeID)
		if err != nil {
			return err
		}
		var changed []*finance.FinanceOffer
		chosen, changed, err = finance.AcceptOffer(offers, offerID)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		t, err := s.loadTrade(ctx, offer.TradeID)
		if err != nil {
			return err
		}
		err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
			for _, o := range changed {
				if err := repos.Offers.UpdateStatus(ctx, o); err != nil {
					return err
				}
			}
			if err := t.AcceptFinanceOffer(chosen.ID, chosen.ProviderName, chosen.Amount); err != nil {
				return err
			}
			return repos.Trades.Save(ctx, t)
		})
		if err != nil {
			return err
		}
		s.publishTrade(ctx, t)

		s.logger.Info("Finance offer accepted",
			zap.String("trade_id", t.ID),
			zap.String("offer_id", chosen.ID),
			zap.String("provider", chosen.ProviderID),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToFinanceOfferResponse(chosen)
	return &response, nil
}

// ListByTrade returns the offers of a trade
func (s *FinanceService) ListByTrade(ctx context.Context, tradeID string) ([]FinanceOfferResponse, error) {
	if _, err := s.loadTrade(ctx, tradeID); err != nil {
		return nil, err
	}
	offers, err := s.repos.Offers.FindByTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return ToFinanceOfferResponses(offers), nil
}

// ListRecent returns recent offers across all trades
func (s *FinanceService) ListRecent(ctx context.Context, query PageQuery) ([]FinanceOfferResponse, int64, error) {
	offers, total, err := s.repos.Offers.List(ctx, query.toFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToFinanceOfferResponses(offers), total, nil
}

// liveOffers keeps the offers that are available or accepted
func liveOffers(offers []finance.FinanceOffer) []finance.FinanceOffer {
	var out []finance.FinanceOffer
	for _, o := range offers {
		if o.Status == finance.OfferStatusAvailable || o.Status == finance.OfferStatusAccepted {
			out = append(out, o)
		}
	}
	return out
}
