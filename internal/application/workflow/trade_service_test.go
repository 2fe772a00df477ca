package workflow

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/audit"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

func validCreateRequest() CreateTradeRequest {
	return CreateTradeRequest{
		ExporterName:    "Hamburg Tools",
		ExporterCountry: "Germany",
		ImporterName:    "Nairobi Imports",
		ImporterCountry: "Kenya",
		Product:         "Coffee",
		EstimatedAmount: decimal.NewFromInt(120000),
		Currency:        "usd",
		Incoterm:        "fob",
	}
}

func TestTradeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("takes in a planning trade", func(t *testing.T) {
		repos := newTestRepos()
		pub := &recordingPublisher{}
		svc := NewTradeService(repos.repositories(), nil)
		svc.SetEventPublisher(pub)

		repos.trades.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)

		assert.True(t, shared.HasPrefix(resp.ID, shared.PrefixTrade))
		assert.Equal(t, "planning", resp.Status)
		assert.Equal(t, "", resp.ComplianceStatus)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, "FOB", resp.Incoterm)
		assert.Equal(t, "Germany → Kenya", resp.Route)
		assert.Equal(t, []string{trade.EventTypeTradeCreated}, pub.types())
		repos.trades.AssertExpectations(t)
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		repos := newTestRepos()
		svc := NewTradeService(repos.repositories(), nil)

		req := validCreateRequest()
		req.Currency = "XYZ1"
		_, err := svc.Create(ctx, req)
		assert.Error(t, err)
		repos.trades.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTradeService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("status filter", func(t *testing.T) {
		repos := newTestRepos()
		svc := NewTradeService(repos.repositories(), nil)
		tr := newTestTrade(t, testImporter)

		repos.trades.On("List", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["status"] == "planning" && f.Page == 2 && f.PageSize == 5 && f.OrderDir == "desc"
		})).Return([]trade.Trade{*tr}, int64(6), nil)

		trades, total, err := svc.List(ctx, TradeListFilter{PageQuery: PageQuery{Page: 2, PageSize: 5}, Status: "planning"})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		require.Len(t, trades, 1)
		assert.Equal(t, tr.ID, trades[0].ID)
	})

	t.Run("invalid status", func(t *testing.T) {
		repos := newTestRepos()
		svc := NewTradeService(repos.repositories(), nil)

		_, _, err := svc.List(ctx, TradeListFilter{Status: "shipped"})
		assert.Error(t, err)
	})
}

func TestTradeService_ListEligible(t *testing.T) {
	ctx := context.Background()

	t.Run("known stage", func(t *testing.T) {
		repos := newTestRepos()
		svc := NewTradeService(repos.repositories(), nil)
		f := newFixture(t).complianceChecked(t)

		repos.trades.On("FindEligible", mock.Anything, trade.StageFinance, mock.Anything).Return([]trade.Trade{*f.trade}, nil)

		trades, err := svc.ListEligible(ctx, "finance", PageQuery{})
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "compliance_check", trades[0].Status)
	})

	t.Run("unknown stage", func(t *testing.T) {
		repos := newTestRepos()
		svc := NewTradeService(repos.repositories(), nil)

		_, err := svc.ListEligible(ctx, "shipping", PageQuery{})
		assert.Error(t, err)
		repos.trades.AssertNotCalled(t, "FindEligible", mock.Anything, mock.Anything, mock.Anything)
	})
}

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, events ...*audit.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter shared.Filter) ([]audit.Event, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]audit.Event), args.Get(1).(int64), args.Error(2)
}

func TestAuditService_List(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)
	ev := audit.NewEvent("TRD-1", trade.EventTypeTradeCreated, map[string]any{"route": "Germany → Kenya"})

	repo.On("List", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["trade_id"] == "TRD-1"
	})).Return([]audit.Event{*ev}, int64(1), nil)

	events, total, err := svc.List(context.Background(), AuditListFilter{TradeID: "TRD-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "trade.created", events[0].EventType)
}
