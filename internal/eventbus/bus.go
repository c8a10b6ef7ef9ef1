// Package eventbus is the coordination core of assetd: a synchronous
// publish/subscribe dispatcher with a per-resource lifecycle state tracker
// layered on top. Every state transition is the direct result of exactly one
// lifecycle event; components never write states directly.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"assetd/pkg/types"
)

// Handler receives one event. Handlers run synchronously on the emitter's
// goroutine, in registration order; a panic is isolated and logged.
type Handler func(Event)

type subscription struct {
	typ      Type
	wildcard bool
	fn       Handler
	once     bool
	fired    atomic.Bool
	removed  atomic.Bool
}

// Config carries the optional bus dependencies.
type Config struct {
	Clock  clock.Clock
	Logger zerolog.Logger
}

// Bus dispatches events and owns all resource state. The zero value is not
// usable; construct with New or NewWithConfig.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]*subscription
	all  []*subscription

	clk     clock.Clock
	log     zerolog.Logger
	emitted atomic.Uint64

	smu    sync.RWMutex
	states map[string]*types.StateRecord
}

// New returns a bus with a real clock and no logging.
func New() *Bus {
	return NewWithConfig(Config{})
}

// NewWithConfig returns a bus and installs the lifecycle-to-state bindings.
func NewWithConfig(cfg Config) *Bus {
	b := &Bus{
		subs:   make(map[Type][]*subscription),
		states: make(map[string]*types.StateRecord),
		clk:    cfg.Clock,
		log:    cfg.Logger,
	}
	if b.clk == nil {
		b.clk = clock.New()
	}
	b.bindStateTransitions()
	return b
}

// Subscribe registers fn for events of type t and returns a function that
// removes exactly this listener. Listeners fire in registration order.
func (b *Bus) Subscribe(t Type, fn Handler) func() {
	return b.add(&subscription{typ: t, fn: fn})
}

// SubscribeAll registers fn for every event type. Wildcard listeners fire
// after the type-specific listeners of each event.
func (b *Bus) SubscribeAll(fn Handler) func() {
	return b.add(&subscription{wildcard: true, fn: fn})
}

// Once registers fn for a single invocation. The listener is detached before
// fn runs, so a re-entrant emit from inside fn cannot fire it twice.
func (b *Bus) Once(t Type, fn Handler) func() {
	return b.add(&subscription{typ: t, fn: fn, once: true})
}

func (b *Bus) add(s *subscription) func() {
	b.mu.Lock()
	if s.wildcard {
		b.all = append(b.all, s)
	} else {
		b.subs[s.typ] = append(b.subs[s.typ], s)
	}
	b.mu.Unlock()
	return func() { b.remove(s) }
}

func (b *Bus) remove(s *subscription) {
	if !s.removed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.wildcard {
		b.all = cut(b.all, s)
		return
	}
	b.subs[s.typ] = cut(b.subs[s.typ], s)
	if len(b.subs[s.typ]) == 0 {
		delete(b.subs, s.typ)
	}
}

func cut(list []*subscription, s *subscription) []*subscription {
	for i, cur := range list {
		if cur == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Emit stamps p into an envelope and synchronously invokes every current
// listener for t, then every wildcard listener. It returns only after all
// handlers ran; nested emits from inside a handler are legal. A listener
// added during dispatch sees the next event, not this one.
func (b *Bus) Emit(t Type, p Payload) {
	e := Event{Type: t, Timestamp: b.clk.Now(), Payload: p}
	b.emitted.Add(1)
	eventsEmitted.WithLabelValues(string(t)).Inc()

	b.mu.RLock()
	typed := append([]*subscription(nil), b.subs[t]...)
	wild := append([]*subscription(nil), b.all...)
	b.mu.RUnlock()

	for _, s := range typed {
		b.dispatch(s, e)
	}
	for _, s := range wild {
		b.dispatch(s, e)
	}
}

// EmittedTotal reports how many events this bus has dispatched.
func (b *Bus) EmittedTotal() uint64 { return b.emitted.Load() }

func (b *Bus) dispatch(s *subscription, e Event) {
	if s.removed.Load() {
		return
	}
	if s.once {
		if !s.fired.CompareAndSwap(false, true) {
			return
		}
		b.remove(s)
	}
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			b.log.Error().Str("event", string(e.Type)).Interface("panic", r).
				Msg("event handler panicked; continuing dispatch")
		}
	}()
	s.fn(e)
}
