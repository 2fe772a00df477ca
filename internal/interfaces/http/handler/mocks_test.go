package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/proof"
)

type MockTradeService struct {
	mock.Mock
}

func (m *MockTradeService) Create(ctx context.Context, req workflow.CreateTradeRequest) (*workflow.TradeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.TradeResponse), args.Error(1)
}

func (m *MockTradeService) GetByID(ctx context.Context, id string) (*workflow.TradeResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.TradeResponse), args.Error(1)
}

func (m *MockTradeService) List(ctx context.Context, filter workflow.TradeListFilter) ([]workflow.TradeResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.TradeResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockTradeService) ListEligible(ctx context.Context, stage string, query workflow.PageQuery) ([]workflow.TradeResponse, error) {
	args := m.Called(ctx, stage, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workflow.TradeResponse), args.Error(1)
}

type MockComplianceService struct {
	mock.Mock
}

func (m *MockComplianceService) RunCompliance(ctx context.Context, tradeID string) (*workflow.ComplianceRunResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.ComplianceRunResponse), args.Error(1)
}

func (m *MockComplianceService) ListByTrade(ctx context.Context, tradeID string) ([]workflow.ComplianceRunResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workflow.ComplianceRunResponse), args.Error(1)
}

func (m *MockComplianceService) ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.ComplianceRunResponse, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.ComplianceRunResponse), args.Get(1).(int64), args.Error(2)
}

type MockFinanceService struct {
	mock.Mock
}

func (m *MockFinanceService) GenerateOffers(ctx context.Context, tradeID string) ([]workflow.FinanceOfferResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workflow.FinanceOfferResponse), args.Error(1)
}

func (m *MockFinanceService) AcceptOffer(ctx context.Context, offerID string) (*workflow.FinanceOfferResponse, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.FinanceOfferResponse), args.Error(1)
}

func (m *MockFinanceService) ListByTrade(ctx context.Context, tradeID string) ([]workflow.FinanceOfferResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workflow.FinanceOfferResponse), args.Error(1)
}

func (m *MockFinanceService) ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.FinanceOfferResponse, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.FinanceOfferResponse), args.Get(1).(int64), args.Error(2)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ExecutePayment(ctx context.Context, tradeID string) (*workflow.PaymentResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.PaymentResponse), args.Error(1)
}

func (m *MockPaymentService) GetByID(ctx context.Context, id string) (*workflow.PaymentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.PaymentResponse), args.Error(1)
}

func (m *MockPaymentService) ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.PaymentResponse, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.PaymentResponse), args.Get(1).(int64), args.Error(2)
}

type MockProofService struct {
	mock.Mock
}

func (m *MockProofService) GenerateBundle(ctx context.Context, tradeID string) (*workflow.ProofBundleResponse, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.ProofBundleResponse), args.Error(1)
}

func (m *MockProofService) GetByID(ctx context.Context, id string) (*workflow.ProofBundleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.ProofBundleResponse), args.Error(1)
}

func (m *MockProofService) ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.ProofBundleResponse, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.ProofBundleResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockProofService) Verify(ctx context.Context, query workflow.VerifyQuery) (*proof.Verification, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proof.Verification), args.Error(1)
}

func (m *MockProofService) ArchiveLink(ctx context.Context, bundleID string, expiresIn time.Duration) (*workflow.ArchiveLinkResponse, error) {
	args := m.Called(ctx, bundleID, expiresIn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.ArchiveLinkResponse), args.Error(1)
}

func (m *MockProofService) InclusionProof(ctx context.Context, bundleID, artifactID string) (*workflow.InclusionProofResponse, error) {
	args := m.Called(ctx, bundleID, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.InclusionProofResponse), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, filter workflow.AuditListFilter) ([]workflow.AuditEventResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]workflow.AuditEventResponse), args.Get(1).(int64), args.Error(2)
}
