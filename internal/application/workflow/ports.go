package workflow

import (
	"context"
	"time"

	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// Repositories groups the record store ports a stage reads and writes
type Repositories struct {
	Trades     trade.TradeRepository
	Compliance compliance.RunRepository
	Offers     finance.OfferRepository
	Payments   payment.PaymentRepository
	Bundles    proof.BundleRepository
}

// UnitOfWork runs fn against repositories bound to a single transaction.
// Either every write made through repos commits or none does.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Locker serialises stage operations per trade
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the lock and is safe to call more than once.
	Lock(ctx context.Context, key string) (func(), error)
}

// HopExecutor settles one hop of a payment route. Implementations are
// given a context that is not cancelled by the caller, because a hop that
// started must finish.
type HopExecutor interface {
	ExecuteHop(ctx context.Context, p *payment.Payment, hop payment.Hop) error
}

// BundleArchive stores a copy of sealed bundles outside the database
type BundleArchive interface {
	// Archive stores the document under key
	Archive(ctx context.Context, key string, document []byte) error
}

// ArchiveLinker is implemented by archives that can hand out time-limited
// download links for stored documents
type ArchiveLinker interface {
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// StageObserver instruments the execution of a stage. Implementations
// must call fn exactly once and return its error.
type StageObserver interface {
	ObserveStage(ctx context.Context, stage trade.Stage, fn func(ctx context.Context) error) error
}

type noopObserver struct{}

func (noopObserver) ObserveStage(ctx context.Context, _ trade.Stage, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Config tunes stage execution
type Config struct {
	// StepDelay is the pause between checklist steps and payment hops
	StepDelay time.Duration
}

// DefaultConfig returns the default execution settings
func DefaultConfig() Config {
	return Config{StepDelay: 0}
}

// waitStep is the suspension point between two steps. It returns early
// with the context error when the caller cancels during the pause.
func waitStep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
