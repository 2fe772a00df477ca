package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/proof"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Outcome is how a driven trade ended
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeComplianceFailed Outcome = "compliance_failed"
	OutcomePaymentFailed    Outcome = "payment_failed"
	OutcomeVerifyFailed     Outcome = "verify_failed"
	OutcomeError            Outcome = "error"
)

// Summary totals a finished run
type Summary struct {
	Started  int
	Outcomes map[Outcome]int
	Elapsed  time.Duration
}

// Completed is the number of trades that reached a verified proof bundle
func (s Summary) Completed() int {
	return s.Outcomes[OutcomeCompleted]
}

// Runner starts trades at a fixed rate and drives each one through every
// workflow stage on a bounded pool of workers.
type Runner struct {
	cfg     Config
	client  *Client
	gen     *TradeGenerator
	metrics *Metrics
	logger  *zap.Logger
	limiter *rate.Limiter

	mu       sync.Mutex
	outcomes map[Outcome]int
}

// NewRunner creates a runner for a validated configuration
func NewRunner(cfg Config, metrics *Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Runner{
		cfg:      cfg,
		client:   NewClient(cfg),
		gen:      NewTradeGenerator(cfg.Seed, cfg.HighRiskShare),
		metrics:  metrics,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		outcomes: make(map[Outcome]int),
	}
}

// Run blocks until the duration elapses, MaxTrades have been started or
// ctx is cancelled. Trades already in flight when the duration elapses are
// driven to the end. Cancelling ctx aborts them.
func (r *Runner) Run(ctx context.Context) Summary {
	start := time.Now()
	r.metrics.targetRate.Set(r.cfg.Rate)

	startCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.cfg.Duration > 0 {
		startCtx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
	}
	defer cancel()

	jobs := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				r.record(r.driveTrade(ctx))
			}
		}()
	}

	started := 0
loop:
	for r.cfg.MaxTrades == 0 || started < r.cfg.MaxTrades {
		if err := r.limiter.Wait(startCtx); err != nil {
			break
		}
		select {
		case jobs <- struct{}{}:
			started++
		case <-startCtx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	outcomes := make(map[Outcome]int, len(r.outcomes))
	for k, v := range r.outcomes {
		outcomes[k] = v
	}
	return Summary{Started: started, Outcomes: outcomes, Elapsed: time.Since(start)}
}

func (r *Runner) record(o Outcome) {
	r.metrics.recordOutcome(o)
	r.mu.Lock()
	r.outcomes[o]++
	r.mu.Unlock()
}

// stage runs one API call and records its latency
func (r *Runner) stage(ctx context.Context, name string, call func(context.Context) error) error {
	begin := time.Now()
	err := call(ctx)
	r.metrics.observeStage(name, time.Since(begin), err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// driveTrade walks one generated trade from intake to a verified bundle
func (r *Runner) driveTrade(ctx context.Context) Outcome {
	r.metrics.inflight.Inc()
	defer r.metrics.inflight.Dec()

	o, tradeID, err := r.walk(ctx)
	switch {
	case err != nil:
		r.logger.Warn("Trade aborted", zap.String("trade_id", tradeID), zap.Error(err))
	case o != OutcomeCompleted:
		r.logger.Info("Trade ended early", zap.String("trade_id", tradeID), zap.String("outcome", string(o)))
	default:
		r.logger.Debug("Trade completed", zap.String("trade_id", tradeID))
	}
	return o
}

func (r *Runner) walk(ctx context.Context) (Outcome, string, error) {
	req := r.gen.Next()

	var tr *workflow.TradeResponse
	if err := r.stage(ctx, StageIntake, func(ctx context.Context) (err error) {
		tr, err = r.client.CreateTrade(ctx, req)
		return err
	}); err != nil {
		return OutcomeError, "", err
	}

	var run *workflow.ComplianceRunResponse
	if err := r.stage(ctx, StageCompliance, func(ctx context.Context) (err error) {
		run, err = r.client.RunCompliance(ctx, tr.ID)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}
	if run.Status == "failed" {
		return OutcomeComplianceFailed, tr.ID, nil
	}

	var offers []workflow.FinanceOfferResponse
	if err := r.stage(ctx, StageFinance, func(ctx context.Context) (err error) {
		offers, err = r.client.GenerateOffers(ctx, tr.ID)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}
	chosen, ok := cheapestOffer(offers)
	if !ok {
		return OutcomeError, tr.ID, errors.New("finance: no offers returned")
	}

	if err := r.stage(ctx, StageAccept, func(ctx context.Context) error {
		_, err := r.client.AcceptOffer(ctx, chosen.ID)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}

	var paid *workflow.PaymentResponse
	if err := r.stage(ctx, StagePayment, func(ctx context.Context) (err error) {
		paid, err = r.client.ExecutePayment(ctx, tr.ID)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}
	if paid.Status == "failed" {
		return OutcomePaymentFailed, tr.ID, nil
	}

	var bundle *workflow.ProofBundleResponse
	if err := r.stage(ctx, StageProof, func(ctx context.Context) (err error) {
		bundle, err = r.client.GenerateProof(ctx, tr.ID)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}

	var v *proof.Verification
	if err := r.stage(ctx, StageVerify, func(ctx context.Context) (err error) {
		v, err = r.client.Verify(ctx, bundle.MerkleRoot, true)
		return err
	}); err != nil {
		return OutcomeError, tr.ID, err
	}
	if v.Result != proof.ResultVerified {
		return OutcomeVerifyFailed, tr.ID, nil
	}
	return OutcomeCompleted, tr.ID, nil
}

// cheapestOffer picks the offer with the lowest total cost
func cheapestOffer(offers []workflow.FinanceOfferResponse) (workflow.FinanceOfferResponse, bool) {
	if len(offers) == 0 {
		return workflow.FinanceOfferResponse{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.TotalCost.LessThan(best.TotalCost) {
			best = o
		}
	}
	return best, true
}
