package event

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)

type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{} // empty: every type
}

func (s subscription) accepts(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// InMemoryEventBus fans committed domain events out to handlers in-process,
// in subscription order. Handler failures and panics are logged and never
// reach the publisher.
type InMemoryEventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{logger: logger.Named("eventbus")}
}

// Subscribe registers handler for the types it reports. Types are read once.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler) {
	types := handler.EventTypes()
	sub := subscription{handler: handler, types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", types))
}

// Publish delivers events synchronously and always returns nil
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, ev := range events {
		for _, sub := range subs {
			if !sub.accepts(ev.EventType()) {
				continue
			}
			if err := deliver(ctx, sub.handler, ev); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID()),
					zap.String("trade_id", ev.AggregateID()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// deliver turns a handler panic into an error
func deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}
