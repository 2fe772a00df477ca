package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

func newPaymentTestService(repos *testRepos, executor HopExecutor) (*PaymentService, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewPaymentService(
		repos.repositories(),
		&fakeUnitOfWork{repos: repos.repositories()},
		&fakeLocker{},
		payment.NewPlanner(nil, &shared.FixedRandomSource{Ints: []int{0}}),
		executor,
		&shared.FixedRandomSource{Ints: []int{0}},
		DefaultConfig(),
		nil,
	)
	svc.SetEventPublisher(pub)
	return svc, pub
}

func TestPaymentService_ExecutePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles every hop in order", func(t *testing.T) {
		repos := newTestRepos()
		executor := new(MockHopExecutor)
		svc, pub := newPaymentTestService(repos, executor)
		f := newFixture(t).financeAccepted(t)
		offer := f.acceptedOffer()

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)
		repos.offers.On("FindByID", mock.Anything, offer.ID).Return(offer, nil)
		repos.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.Anything).Return(nil)
		repos.trades.On("Save", mock.Anything, f.trade).Return(nil)

		var steps []int
		executor.On("ExecuteHop", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				steps = append(steps, args.Get(2).(payment.Hop).Step)
			}).
			Return(nil)

		resp, err := svc.ExecutePayment(ctx, f.trade.ID)
		require.NoError(t, err)

		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, "AAAAAAAAAAAA", resp.ConfirmationCode)
		assert.NotNil(t, resp.ExecutedAt)
		assert.True(t, resp.Amount.Equal(offer.Amount))
		require.Len(t, resp.Route, 3)
		for _, h := range resp.Route {
			assert.Equal(t, "completed", h.Status)
		}
		assert.Equal(t, []int{1, 2, 3}, steps)
		assert.Equal(t, trade.TradeStatusPaymentCompleted, f.trade.Status)
		assert.Equal(t, resp.ID, f.trade.PaymentID)

		repos.payments.AssertNumberOfCalls(t, "Save", 4)
		assert.Equal(t, []string{
			trade.EventTypePaymentStarted,
			trade.EventTypePaymentHopCompleted,
			trade.EventTypePaymentHopCompleted,
			trade.EventTypePaymentHopCompleted,
			trade.EventTypePaymentExecuted,
		}, pub.types())
	})

	t.Run("resumes from the first pending hop", func(t *testing.T) {
		repos := newTestRepos()
		executor := new(MockHopExecutor)
		svc, pub := newPaymentTestService(repos, executor)
		f := newFixture(t).paymentExecuting(t)
		require.NoError(t, f.payment.CompleteHop(0))

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)
		repos.payments.On("FindByID", mock.Anything, f.payment.ID).Return(f.payment, nil)
		repos.payments.On("Save", mock.Anything, f.payment).Return(nil)
		repos.trades.On("Save", mock.Anything, f.trade).Return(nil)
		executor.On("ExecuteHop", mock.Anything, f.payment, mock.Anything).Return(nil).Times(2)

		resp, err := svc.ExecutePayment(ctx, f.trade.ID)
		require.NoError(t, err)

		assert.Equal(t, f.payment.ID, resp.ID)
		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, trade.TradeStatusPaymentCompleted, f.trade.Status)
		repos.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		executor.AssertExpectations(t)
		assert.Equal(t, []string{
			trade.EventTypePaymentHopCompleted,
			trade.EventTypePaymentHopCompleted,
			trade.EventTypePaymentExecuted,
		}, pub.types())
	})

	t.Run("hop failure fails payment and trade", func(t *testing.T) {
		repos := newTestRepos()
		executor := new(MockHopExecutor)
		svc, pub := newPaymentTestService(repos, executor)
		f := newFixture(t).financeAccepted(t)
		offer := f.acceptedOffer()

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)
		repos.offers.On("FindByID", mock.Anything, offer.ID).Return(offer, nil)
		repos.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.Anything).Return(nil)
		repos.trades.On("Save", mock.Anything, f.trade).Return(nil)
		executor.On("ExecuteHop", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

		resp, err := svc.ExecutePayment(ctx, f.trade.ID)
		require.NoError(t, err)

		assert.Equal(t, "failed", resp.Status)
		assert.Contains(t, resp.FailureReason, "timeout")
		assert.Equal(t, "pending", resp.Route[0].Status)
		assert.Equal(t, trade.TradeStatusFailed, f.trade.Status)
		assert.Equal(t, []string{trade.EventTypePaymentStarted, trade.EventTypePaymentFailed}, pub.types())
	})

	t.Run("cancellation stops before the next hop", func(t *testing.T) {
		repos := newTestRepos()
		executor := new(MockHopExecutor)
		svc, _ := newPaymentTestService(repos, executor)
		f := newFixture(t).financeAccepted(t)
		offer := f.acceptedOffer()

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)
		repos.offers.On("FindByID", mock.Anything, offer.ID).Return(offer, nil)
		repos.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
		repos.trades.On("Save", mock.Anything, f.trade).Return(nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.ExecutePayment(cancelled, f.trade.ID)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, trade.TradeStatusPaymentExecuting, f.trade.Status)
		executor.AssertNotCalled(t, "ExecuteHop", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed payment is returned", func(t *testing.T) {
		repos := newTestRepos()
		executor := new(MockHopExecutor)
		svc, pub := newPaymentTestService(repos, executor)
		f := newFixture(t).paymentCompleted(t)

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)
		repos.payments.On("FindByID", mock.Anything, f.payment.ID).Return(f.payment, nil)

		resp, err := svc.ExecutePayment(ctx, f.trade.ID)
		require.NoError(t, err)

		assert.Equal(t, f.payment.ID, resp.ID)
		assert.Equal(t, "ABCDEFGHIJKL", resp.ConfirmationCode)
		assert.Empty(t, pub.types())
		repos.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("ineligible trade", func(t *testing.T) {
		repos := newTestRepos()
		svc, _ := newPaymentTestService(repos, new(MockHopExecutor))
		f := newFixture(t).financePending(t)

		repos.trades.On("FindByID", mock.Anything, f.trade.ID).Return(f.trade, nil)

		_, err := svc.ExecutePayment(ctx, f.trade.ID)
		assert.ErrorIs(t, err, shared.ErrNotEligible)
	})
}

func TestSimulatedHopExecutor(t *testing.T) {
	hop := payment.Hop{Step: 1, BankName: "HSBC"}

	assert.NoError(t, SimulatedHopExecutor{}.ExecuteHop(context.Background(), nil, hop))

	failing := SimulatedHopExecutor{FailureRate: 1, Random: &shared.FixedRandomSource{Floats: []float64{0.3}}}
	assert.Error(t, failing.ExecuteHop(context.Background(), nil, hop))

	start := time.Now()
	slow := SimulatedHopExecutor{Latency: 10 * time.Millisecond}
	require.NoError(t, slow.ExecuteHop(context.Background(), nil, hop))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
