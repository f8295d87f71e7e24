// Package bus is the synchronous event bus connecting record builders to the
// event log, the milestone engine and plugins.
//
// Handlers run on the emitting goroutine in registration order. A handler
// subscribed to event.Wildcard receives every event. The first handler error
// stops delivery of that event and is returned to the emitter.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
)

// Handler reacts to one event. Handlers may emit further events on the same bus.
type Handler func(ctx context.Context, e *event.Event) error

type subscription struct {
	id      uint64
	topic   event.Type
	handler Handler
}

// Bus dispatches events to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	defaultOnce sync.Once
	defaultBus  *Bus
)

// Default returns the process-wide bus used by builders that were not given one.
func Default() *Bus {
	defaultOnce.Do(func() { defaultBus = New() })
	return defaultBus
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic event.Type, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sid := b.nextID
	b.subs = append(b.subs, subscription{id: sid, topic: topic, handler: h})

	b.logger.Debug("bus subscription added", "topic", topic, "subscription", sid)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sid) })
	}
}

func (b *Bus) remove(sid uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sid {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers e to every matching subscriber. Subscriptions added while
// the event is being delivered do not receive it.
func (b *Bus) Emit(ctx context.Context, e *event.Event) error {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if s.topic != e.Type && s.topic != event.Wildcard {
			continue
		}
		if err := s.handler(ctx, e); err != nil {
			b.logger.Warn("bus subscriber failed",
				"type", e.Type,
				"subscription", s.id,
				"error", err,
			)
			return fmt.Errorf("%w: %s: %w", errs.ErrSubscriber, e.Type, err)
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
