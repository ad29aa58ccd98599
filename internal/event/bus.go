package event

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/claudeflow/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(ActivityEvent)

// wildcard is the pseudo-kind used by SubscribeAll.
const wildcard Kind = "*"

// subscription represents a registered event handler.
type subscription struct {
	id      string
	kind    Kind
	handler Handler
}

// Bus is a synchronous pub-sub event bus.
// It allows components to communicate without direct dependencies.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[Kind][]subscription
	nextID        atomic.Uint64

	logger *logging.Logger
	now    func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(logger *logging.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger.WithComponent("bus")
		}
	}
}

// WithClock sets the time source used by the Emit* helpers.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscriptions: make(map[Kind][]subscription),
		logger:        logging.NopLogger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a specific kind.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(kind Kind, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions[kind] = append(b.subscriptions[kind], subscription{
		id:      id,
		kind:    kind,
		handler: handler,
	})
	return id
}

// SubscribeAll registers a handler for every published event, including
// kinds this package does not know about.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for kind, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			// Build a fresh slice so snapshots taken by in-flight
			// Publish calls are never mutated underneath them.
			remaining := make([]subscription, 0, len(subs)-1)
			remaining = append(remaining, subs[:i]...)
			remaining = append(remaining, subs[i+1:]...)
			if len(remaining) == 0 {
				delete(b.subscriptions, kind)
			} else {
				b.subscriptions[kind] = remaining
			}
			return true
		}
	}
	return false
}

// Publish dispatches an event synchronously on the caller's goroutine.
// Handlers subscribed to the event's kind run first, in registration order,
// followed by wildcard handlers. A panicking handler is logged and recovered
// and the remaining handlers still run.
//
// The handler list is snapshotted before dispatch, so handlers may publish,
// subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish(e ActivityEvent) {
	b.mu.RLock()
	specific := b.subscriptions[e.Kind]
	wild := b.subscriptions[wildcard]
	b.mu.RUnlock()

	if e.Kind != wildcard {
		for _, sub := range specific {
			b.safeCall(sub, e)
		}
	}
	for _, sub := range wild {
		b.safeCall(sub, e)
	}
}

// safeCall invokes a handler and recovers from any panic.
func (b *Bus) safeCall(sub subscription, e ActivityEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"kind", string(e.Kind),
				"source", e.Source,
				"subscription", sub.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	sub.handler(e)
}

// EmitTaskStarted publishes a TaskStarted event stamped with the current time.
func (b *Bus) EmitTaskStarted(source string, details map[string]any) {
	b.Publish(New(TaskStarted, b.now(), source, details))
}

// EmitTaskCompleted publishes a TaskCompleted event stamped with the current time.
func (b *Bus) EmitTaskCompleted(source string, details map[string]any) {
	b.Publish(New(TaskCompleted, b.now(), source, details))
}

// EmitAttentionRequired publishes an AttentionRequired event stamped with the current time.
func (b *Bus) EmitAttentionRequired(source string, details map[string]any) {
	b.Publish(New(AttentionRequired, b.now(), source, details))
}

// EmitIdle publishes an Idle event stamped with the current time.
func (b *Bus) EmitIdle(source string, details map[string]any) {
	b.Publish(New(Idle, b.now(), source, details))
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[Kind][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
