package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PaymentService routes and executes payments
type PaymentService struct {
	stageBase
	planner  *payment.Planner
	executor HopExecutor
	random   shared.RandomSource
	config   Config
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	repos Repositories,
	uow UnitOfWork,
	locker Locker,
	planner *payment.Planner,
	executor HopExecutor,
	random shared.RandomSource,
	config Config,
	logger *zap.Logger,
) *PaymentService {
	if executor == nil {
		executor = SimulatedHopExecutor{}
	}
	return &PaymentService{
		stageBase: newStageBase(repos, uow, locker, logger),
		planner:   planner,
		executor:  executor,
		random:    random,
		config:    config,
	}
}

// ExecutePayment plans a route from the accepted offer and settles it hop
// by hop. A trade already in payment_executing resumes from its first
// pending hop; a trade whose payment completed gets that payment back.
//
// Cancelling ctx stops execution before the next hop. A hop that has
// started is always settled and persisted.
func (s *PaymentService) ExecutePayment(ctx context.Context, tradeID string) (*PaymentResponse, error) {
	var p *payment.Payment
	err := s.observer.ObserveStage(ctx, trade.StagePayment, func(ctx context.Context) error {
		unlock, err := s.lockTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		defer unlock()

		t, err := s.loadTrade(ctx, tradeID)
		if err != nil {
			return err
		}

		p, err = s.startOrResume(ctx, t)
		if err != nil {
			return err
		}
		if p.Status != payment.StatusExecuting {
			return nil
		}
		return s.run(ctx, t, p)
	})
	if err != nil {
		return nil, err
	}

	response := ToPaymentResponse(p)
	return &response, nil
}

// startOrResume returns the payment to drive, creating it when the trade
// has none yet
func (s *PaymentService) startOrResume(ctx context.Context, t *trade.Trade) (*payment.Payment, error) {
	if t.PaymentID != "" {
		switch t.Status {
		case trade.TradeStatusPaymentExecuting, trade.TradeStatusPaymentCompleted, trade.TradeStatusCompleted:
			p, err := s.repos.Payments.FindByID(ctx, t.PaymentID)
			if err != nil {
				return nil, err
			}
			if p.Status == payment.StatusExecuting {
				s.logger.Info("Resuming payment",
					zap.String("trade_id", t.ID),
					zap.String("payment_id", p.ID),
					zap.Int("next_hop", p.NextPendingHop()),
				)
			}
			return p, nil
		}
	}

	if err := t.EnsureEligible(trade.StagePayment); err != nil {
		return nil, err
	}
	if t.FinanceOfferID == "" {
		return nil, shared.NewDomainError("NO_FINANCE_OFFER", "Trade has no accepted finance offer")
	}
	offer, err := s.repos.Offers.FindByID(ctx, t.FinanceOfferID)
	if err != nil {
		return nil, err
	}

	p, err := s.planner.Plan(payment.RouteRequest{
		TradeID:         t.ID,
		FinanceOfferID:  offer.ID,
		Amount:          offer.Amount,
		Currency:        offer.Currency,
		ExporterName:    t.Exporter.Name,
		ExporterCountry: t.Exporter.Country,
		ImporterName:    t.Importer.Name,
		ImporterCountry: t.Importer.Country,
	})
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		if err := t.StartPayment(p.ID); err != nil {
			return err
		}
		return repos.Trades.Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.publishTrade(ctx, t)

	s.logger.Info("Payment started",
		zap.String("trade_id", t.ID),
		zap.String("payment_id", p.ID),
		zap.Int("hops", len(p.Route)),
	)
	return p, nil
}

// run settles the pending hops in order and completes the payment
func (s *PaymentService) run(ctx context.Context, t *trade.Trade, p *payment.Payment) error {
	stepCtx := context.WithoutCancel(ctx)

	first := true
	for idx := p.NextPendingHop(); idx >= 0; idx = p.NextPendingHop() {
		if first {
			if err := ctx.Err(); err != nil {
				return err
			}
			first = false
		} else if err := waitStep(ctx, s.config.StepDelay); err != nil {
			return err
		}

		hop := p.Route[idx]
		if err := s.executor.ExecuteHop(stepCtx, p, hop); err != nil {
			return s.fail(stepCtx, t, p, fmt.Sprintf("hop %d (%s): %v", hop.Step, hop.BankName, err))
		}
		if err := p.CompleteHop(idx); err != nil {
			return err
		}
		if err := s.repos.Payments.Save(stepCtx, p); err != nil {
			return err
		}
		s.publish(stepCtx, trade.NewPaymentHopCompletedEvent(t.ID, p.ID, hop.Step, hop.BankName))
	}

	if err := p.Complete(payment.NewConfirmationCode(s.random)); err != nil {
		return err
	}
	err := s.uow.Do(stepCtx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Payments.Save(ctx, p); err != nil {
			return err
		}
		if err := t.CompletePayment(p.ID, p.Amount, p.ConfirmationCode); err != nil {
			return err
		}
		return repos.Trades.Save(ctx, t)
	})
	if err != nil {
		return err
	}
	s.publishTrade(stepCtx, t)

	s.logger.Info("Payment executed",
		zap.String("trade_id", t.ID),
		zap.String("payment_id", p.ID),
		zap.String("confirmation_code", p.ConfirmationCode),
	)
	return nil
}

// fail records a failed payment and moves the trade to failed
func (s *PaymentService) fail(ctx context.Context, t *trade.Trade, p *payment.Payment, reason string) error {
	if err := p.Fail(reason); err != nil {
		return err
	}
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Payments.Save(ctx, p); err != nil {
			return err
		}
		if err := t.FailPayment(p.ID, reason); err != nil {
			return err
		}
		return repos.Trades.Save(ctx, t)
	})
	if err != nil {
		return err
	}
	s.publishTrade(ctx, t)

	s.logger.Warn("Payment failed",
		zap.String("trade_id", t.ID),
		zap.String("payment_id", p.ID),
		zap.String("reason", reason),
	)
	return nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, id string) (*PaymentResponse, error) {
	p, err := s.repos.Payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(p)
	return &response, nil
}

// ListRecent returns recent payments across all trades
func (s *PaymentService) ListRecent(ctx context.Context, query PageQuery) ([]PaymentResponse, int64, error) {
	payments, total, err := s.repos.Payments.List(ctx, query.toFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToPaymentResponses(payments), total, nil
}

// SimulatedHopExecutor stands in for the banking network. Every hop takes
// Latency and fails with probability FailureRate.
type SimulatedHopExecutor struct {
	Latency     time.Duration
	FailureRate float64
	Random      shared.RandomSource
}

// ExecuteHop implements HopExecutor
func (e SimulatedHopExecutor) ExecuteHop(ctx context.Context, _ *payment.Payment, hop payment.Hop) error {
	if e.Latency > 0 {
		timer := time.NewTimer(e.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if e.FailureRate > 0 && e.Random != nil && e.Random.Float64() < e.FailureRate {
		return fmt.Errorf("%s did not acknowledge the transfer", hop.BankName)
	}
	return nil
}
