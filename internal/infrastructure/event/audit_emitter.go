package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradeflow/backend/internal/domain/audit"
	"github.com/tradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultAuditBuffer = 256
	maxAuditBatch      = 64
	auditWriteTimeout  = 5 * time.Second
)

// AuditEmitterStats counts what happened to emitted events
type AuditEmitterStats struct {
	Written uint64
	Dropped uint64
	Failed  uint64
}

// AuditEmitter is the asynchronous audit trail writer. Emit enqueues onto a
// bounded buffer and returns immediately; a background goroutine appends
// batches to the repository. A full buffer drops the event with a warning.
type AuditEmitter struct {
	repo   audit.Repository
	logger *zap.Logger
	events chan *audit.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAuditEmitter starts the writer goroutine. Call Close to drain it.
func NewAuditEmitter(repo audit.Repository, bufferSize int, logger *zap.Logger) *AuditEmitter {
	if bufferSize <= 0 {
		bufferSize = defaultAuditBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &AuditEmitter{
		repo:   repo,
		logger: logger,
		events: make(chan *audit.Event, bufferSize),
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit records an audit event. It never blocks and never fails.
func (e *AuditEmitter) Emit(ctx context.Context, tradeID, eventType string, details map[string]any) {
	e.enqueue(audit.NewEvent(tradeID, eventType, details))
}

// Handle enqueues a committed domain event
func (e *AuditEmitter) Handle(ctx context.Context, event shared.DomainEvent) error {
	e.enqueue(audit.FromDomainEvent(event))
	return nil
}

// EventTypes returns nil so every domain event is audited
func (e *AuditEmitter) EventTypes() []string {
	return nil
}

func (e *AuditEmitter) enqueue(ev *audit.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.dropped.Add(1)
		e.logger.Warn("audit emitter closed, dropping event",
			zap.String("event_type", ev.EventType),
			zap.String("trade_id", ev.TradeID),
		)
		return
	}

	select {
	case e.events <- ev:
	default:
		e.dropped.Add(1)
		e.logger.Warn("audit buffer full, dropping event",
			zap.String("event_type", ev.EventType),
			zap.String("trade_id", ev.TradeID),
			zap.Int("buffer_size", cap(e.events)),
		)
	}
}

func (e *AuditEmitter) run() {
	defer close(e.done)

	batch := make([]*audit.Event, 0, maxAuditBatch)
	for ev := range e.events {
		batch = append(batch[:0], ev)
	fill:
		for len(batch) < maxAuditBatch {
			select {
			case next, ok := <-e.events:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		e.write(batch)
	}
}

func (e *AuditEmitter) write(batch []*audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := e.repo.Append(ctx, batch...); err != nil {
		e.failed.Add(uint64(len(batch)))
		e.logger.Error("failed to write audit events",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}
	e.written.Add(uint64(len(batch)))
}

// Stats returns the emitter counters
func (e *AuditEmitter) Stats() AuditEmitterStats {
	return AuditEmitterStats{
		Written: e.written.Load(),
		Dropped: e.dropped.Load(),
		Failed:  e.failed.Load(),
	}
}

// Close stops accepting events and waits until the buffer is drained or
// ctx is done. Safe to call more than once.
func (e *AuditEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("audit emitter did not drain"), ctx.Err())
	}
}

// Ensure AuditEmitter implements Emitter and EventHandler
var (
	_ audit.Emitter       = (*AuditEmitter)(nil)
	_ shared.EventHandler = (*AuditEmitter)(nil)
)
