package eventbus

import (
	"context"
	"errors"
	"time"

	"assetd/pkg/types"
)

// DefaultWaitTimeout bounds WaitForState when the caller passes no budget.
const DefaultWaitTimeout = 10 * time.Second

// ErrWaitTimeout reports that the wanted state was not reached in time. It is
// an expected outcome, not a failure of the bus.
var ErrWaitTimeout = errors.New("eventbus: wait for state timed out")

// WaitForState blocks until id reaches one of the wanted states, the timeout
// elapses, or ctx is canceled. A wait that is already satisfied returns
// immediately without arming a timer or touching the subscription list. The
// returned record is the resource's state at resolution time; on timeout or
// cancellation it is the latest record alongside the error. The state_change
// subscription is removed on every path.
func (b *Bus) WaitForState(ctx context.Context, id string, states []types.State, timeout time.Duration) (types.StateRecord, error) {
	if len(states) == 0 {
		states = []types.State{types.StateLoaded}
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	if rec := b.GetState(id); stateIn(rec.State, states) {
		return rec, nil
	}

	match := make(chan types.StateRecord, 1)
	unsub := b.Subscribe(TypeStateChange, func(e Event) {
		p, ok := e.Payload.(StateChangePayload)
		if !ok || p.ResourceID != id || !stateIn(p.To, states) {
			return
		}
		select {
		case match <- b.GetState(id):
		default:
		}
	})
	defer unsub()

	// Re-check after subscribing: the transition may have landed between the
	// fast path and the subscription.
	if rec := b.GetState(id); stateIn(rec.State, states) {
		return rec, nil
	}

	timer := b.clk.Timer(timeout)
	defer timer.Stop()
	select {
	case rec := <-match:
		return rec, nil
	case <-timer.C:
		return b.GetState(id), ErrWaitTimeout
	case <-ctx.Done():
		return b.GetState(id), ctx.Err()
	}
}

func stateIn(s types.State, states []types.State) bool {
	for _, want := range states {
		if s == want {
			return true
		}
	}
	return false
}
