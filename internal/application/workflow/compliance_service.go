package workflow

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ComplianceService runs the compliance checklist against trades
type ComplianceService struct {
	stageBase
	policy compliance.Policy
	config Config
}

// NewComplianceService creates a new ComplianceService
func NewComplianceService(
	repos Repositories,
	uow UnitOfWork,
	locker Locker,
	policy compliance.Policy,
	config Config,
	logger *zap.Logger,
) *ComplianceService {
	return &ComplianceService{
		stageBase: newStageBase(repos, uow, locker, logger),
		policy:    policy,
		config:    config,
	}
}

// RunCompliance evaluates the checklist for a trade and records the run.
// Cancellation is honoured between checks; once the checklist has been
// evaluated the run is persisted even if the caller has gone away.
func (s *ComplianceService) RunCompliance(ctx context.Context, tradeID string) (*ComplianceRunResponse, error) {
	var run *compliance.ComplianceRun
	err := s.observer.ObserveStage(ctx, trade.StageCompliance, func(ctx context.Context) error {
		unlock, err := s.lockTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		defer unlock()

		t, err := s.loadTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if err := t.EnsureEligible(trade.StageCompliance); err != nil {
			return err
		}

		checks, err := s.evaluate(ctx, t)
		if err != nil {
			return err
		}
		run, err = compliance.NewComplianceRun(t.ID, checks)
		if err != nil {
			return err
		}

		commitCtx := context.WithoutCancel(ctx)
		err = s.uow.Do(commitCtx, func(ctx context.Context, repos Repositories) error {
			if err := repos.Compliance.Create(ctx, run); err != nil {
				return err
			}
			if err := t.RecordCompliance(run.ID, trade.ComplianceStatus(run.Status), run.RiskScore); err != nil {
				return err
			}
			return repos.Trades.Save(ctx, t)
		})
		if err != nil {
			return err
		}
		s.publishTrade(commitCtx, t)

		s.logger.Info("Compliance run recorded",
			zap.String("trade_id", t.ID),
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
			zap.Int("risk_score", run.RiskScore),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToComplianceRunResponse(run)
	return &response, nil
}

// evaluate runs the checks one at a time with a suspension point before each
func (s *ComplianceService) evaluate(ctx context.Context, t *trade.Trade) ([]compliance.CheckResult, error) {
	subject := compliance.Subject{
		ExporterCountry: t.Exporter.Country,
		ImporterCountry: t.Importer.Country,
		Product:         t.Product,
		Amount:          t.EstimatedAmount,
	}

	checks := make([]compliance.CheckResult, 0, len(s.policy.Rules))
	for i, rule := range s.policy.Rules {
		if i == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		} else if err := waitStep(ctx, s.config.StepDelay); err != nil {
			return nil, err
		}
		checks = append(checks, rule.Check(subject, s.policy.Context))
	}
	return checks, nil
}

// ListByTrade returns the runs of a trade, newest first
func (s *ComplianceService) ListByTrade(ctx context.Context, tradeID string) ([]ComplianceRunResponse, error) {
	if _, err := s.loadTrade(ctx, tradeID); err != nil {
		return nil, err
	}
	runs, err := s.repos.Compliance.ListByTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return ToComplianceRunResponses(runs), nil
}

// ListRecent returns recent runs across all trades
func (s *ComplianceService) ListRecent(ctx context.Context, query PageQuery) ([]ComplianceRunResponse, int64, error) {
	runs, total, err := s.repos.Compliance.List(ctx, query.toFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToComplianceRunResponses(runs), total, nil
}
