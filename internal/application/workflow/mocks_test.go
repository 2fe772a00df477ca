package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// MockTradeRepository is a mock implementation of trade.TradeRepository
type MockTradeRepository struct {
	mock.Mock
}

func (m *MockTradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTradeRepository) FindByID(ctx context.Context, id string) (*trade.Trade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockTradeRepository) Save(ctx context.Context, t *trade.Trade) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTradeRepository) List(ctx context.Context, filter shared.Filter) ([]trade.Trade, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.Trade), args.Get(1).(int64), args.Error(2)
}

func (m *MockTradeRepository) FindEligible(ctx context.Context, stage trade.Stage, filter shared.Filter) ([]trade.Trade, error) {
	args := m.Called(ctx, stage, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.Trade), args.Error(1)
}

// MockRunRepository is a mock implementation of compliance.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *compliance.ComplianceRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) FindByID(ctx context.Context, id string) (*compliance.ComplianceRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.ComplianceRun), args.Error(1)
}

func (m *MockRunRepository) FindLatestByTrade(ctx context.Context, tradeID string) (*compliance.ComplianceRun, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.ComplianceRun), args.Error(1)
}

func (m *MockRunRepository) ListByTrade(ctx context.Context, tradeID string) ([]compliance.ComplianceRun, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]compliance.ComplianceRun), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, filter shared.Filter) ([]compliance.ComplianceRun, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]compliance.ComplianceRun), args.Get(1).(int64), args.Error(2)
}

// MockOfferRepository is a mock implementation of finance.OfferRepository
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) CreateBatch(ctx context.Context, offers []finance.FinanceOffer) error {
	args := m.Called(ctx, offers)
	return args.Error(0)
}

func (m *MockOfferRepository) FindByID(ctx context.Context, id string) (*finance.FinanceOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinanceOffer), args.Error(1)
}

func (m *MockOfferRepository) FindByTrade(ctx context.Context, tradeID string) ([]finance.FinanceOffer, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinanceOffer), args.Error(1)
}

func (m *MockOfferRepository) UpdateStatus(ctx context.Context, offer *finance.FinanceOffer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) List(ctx context.Context, filter shared.Filter) ([]finance.FinanceOffer, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]finance.FinanceOffer), args.Get(1).(int64), args.Error(2)
}

// MockPaymentRepository is a mock implementation of payment.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByTrade(ctx context.Context, tradeID string) ([]payment.Payment, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter shared.Filter) ([]payment.Payment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]payment.Payment), args.Get(1).(int64), args.Error(2)
}

// MockBundleRepository is a mock implementation of proof.BundleRepository
type MockBundleRepository struct {
	mock.Mock
}

func (m *MockBundleRepository) Create(ctx context.Context, b *proof.ProofBundle) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBundleRepository) FindByID(ctx context.Context, id string) (*proof.ProofBundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proof.ProofBundle), args.Error(1)
}

func (m *MockBundleRepository) FindByMerkleRoot(ctx context.Context, root string) (*proof.ProofBundle, error) {
	args := m.Called(ctx, root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proof.ProofBundle), args.Error(1)
}

func (m *MockBundleRepository) FindByTrade(ctx context.Context, tradeID string) (*proof.ProofBundle, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proof.ProofBundle), args.Error(1)
}

func (m *MockBundleRepository) SetArchiveKey(ctx context.Context, id, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockBundleRepository) List(ctx context.Context, filter shared.Filter) ([]proof.ProofBundle, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]proof.ProofBundle), args.Get(1).(int64), args.Error(2)
}

// MockBundleArchive is a mock implementation of BundleArchive
type MockBundleArchive struct {
	mock.Mock
}

func (m *MockBundleArchive) Archive(ctx context.Context, key string, document []byte) error {
	args := m.Called(ctx, key, document)
	return args.Error(0)
}

func (m *MockBundleArchive) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockHopExecutor is a mock implementation of HopExecutor
type MockHopExecutor struct {
	mock.Mock
}

func (m *MockHopExecutor) ExecuteHop(ctx context.Context, p *payment.Payment, hop payment.Hop) error {
	args := m.Called(ctx, p, hop)
	return args.Error(0)
}

// ============================================
// Fakes
// ============================================

// testRepos bundles the mocks behind a Repositories value
type testRepos struct {
	trades   *MockTradeRepository
	runs     *MockRunRepository
	offers   *MockOfferRepository
	payments *MockPaymentRepository
	bundles  *MockBundleRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		trades:   new(MockTradeRepository),
		runs:     new(MockRunRepository),
		offers:   new(MockOfferRepository),
		payments: new(MockPaymentRepository),
		bundles:  new(MockBundleRepository),
	}
}

func (r *testRepos) repositories() Repositories {
	return Repositories{
		Trades:     r.trades,
		Compliance: r.runs,
		Offers:     r.offers,
		Payments:   r.payments,
		Bundles:    r.bundles,
	}
}

// fakeUnitOfWork runs fn against the same repositories without a transaction
type fakeUnitOfWork struct {
	repos Repositories
	calls int
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	u.calls++
	return fn(ctx, u.repos)
}

// fakeLocker records the keys it was asked to lock
type fakeLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {}, nil
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
