package daemon

import (
	"sync"

	"assetd/internal/eventbus"
	"assetd/pkg/types"
)

// eventBufferSize is how many events a stream subscriber may fall behind
// before it is dropped.
const eventBufferSize = 64

// eventSub fans one wildcard bus subscription into a buffered channel. The
// channel closes when the subscriber falls behind or cancels; publish and
// cancel can race, so both go through one mutex.
type eventSub struct {
	mu     sync.Mutex
	ch     chan types.EventDTO
	closed bool
	unsub  func()
}

func (s *eventSub) publish(dto types.EventDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- dto:
	default:
		s.closeLocked()
	}
}

func (s *eventSub) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *eventSub) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.unsub()
	close(s.ch)
}

// SubscribeEvents streams bus events as wire DTOs. filter narrows the stream
// to the listed event types; empty means everything. The returned cancel
// func may be called more than once. A subscriber that stops draining has
// its channel closed once eventBufferSize events pile up undelivered.
func (d *Daemon) SubscribeEvents(filter []string) (<-chan types.EventDTO, func()) {
	var want map[string]struct{}
	if len(filter) > 0 {
		want = make(map[string]struct{}, len(filter))
		for _, t := range filter {
			want[t] = struct{}{}
		}
	}
	sub := &eventSub{ch: make(chan types.EventDTO, eventBufferSize)}
	// Hold the sub lock while registering so an overflow close cannot
	// observe a nil unsub.
	sub.mu.Lock()
	sub.unsub = d.bus.SubscribeAll(func(e eventbus.Event) {
		dto := e.DTO()
		if want != nil {
			if _, ok := want[dto.Type]; !ok {
				return
			}
		}
		sub.publish(dto)
	})
	sub.mu.Unlock()
	return sub.ch, sub.cancel
}
