package workflow

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// TradeService handles trade intake and the workflow read models
type TradeService struct {
	stageBase
}

// NewTradeService creates a new TradeService
func NewTradeService(repos Repositories, logger *zap.Logger) *TradeService {
	return &TradeService{stageBase: newStageBase(repos, nil, nil, logger)}
}

// Create takes in a new trade in planning status
func (s *TradeService) Create(ctx context.Context, req CreateTradeRequest) (*TradeResponse, error) {
	t, err := trade.NewTrade(trade.NewTradeParams{
		Exporter:        trade.Party{Name: req.ExporterName, Country: req.ExporterCountry},
		Importer:        trade.Party{Name: req.ImporterName, Country: req.ImporterCountry},
		Product:         req.Product,
		EstimatedAmount: req.EstimatedAmount,
		Currency:        req.Currency,
		Incoterm:        req.Incoterm,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repos.Trades.Create(ctx, t); err != nil {
		return nil, err
	}
	s.publishTrade(ctx, t)

	s.logger.Info("Trade created",
		zap.String("trade_id", t.ID),
		zap.String("route", t.Route()),
	)

	response := ToTradeResponse(t)
	return &response, nil
}

// GetByID retrieves a trade by ID
func (s *TradeService) GetByID(ctx context.Context, id string) (*TradeResponse, error) {
	t, err := s.loadTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTradeResponse(t)
	return &response, nil
}

// List retrieves trades newest first
func (s *TradeService) List(ctx context.Context, filter TradeListFilter) ([]TradeResponse, int64, error) {
	domainFilter := filter.toFilter()
	if filter.Status != "" {
		status := trade.TradeStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown trade status: "+filter.Status)
		}
		domainFilter.Filters["status"] = string(status)
	}

	trades, total, err := s.repos.Trades.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTradeResponses(trades), total, nil
}

// ListEligible returns the trades that may enter a stage, newest first
func (s *TradeService) ListEligible(ctx context.Context, stageName string, query PageQuery) ([]TradeResponse, error) {
	stage, err := trade.ParseStage(stageName)
	if err != nil {
		return nil, err
	}
	trades, err := s.repos.Trades.FindEligible(ctx, stage, query.toFilter())
	if err != nil {
		return nil, err
	}
	return ToTradeResponses(trades), nil
}
