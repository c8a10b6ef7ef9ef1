package eventbus

import (
	"assetd/pkg/types"
)

// stateFor maps each lifecycle event type onto the state it produces.
var stateFor = map[Type]types.State{
	TypeLoadingStart:    types.StateLoading,
	TypeLoadingSuccess:  types.StateLoaded,
	TypeLoadingFailure:  types.StateFailed,
	TypeLoadingTimeout:  types.StateTimeout,
	TypeFallbackStart:   types.StateFallback,
	TypeFallbackFailure: types.StateAllFailed,
}

// bindStateTransitions subscribes the tracker to every lifecycle type at
// construction, ahead of any external listener. The indirection guarantees
// state and events cannot disagree: the only writer is the handler bound
// here, and it emits the derived state_change before external listeners of
// the lifecycle event run.
func (b *Bus) bindStateTransitions() {
	for t, to := range stateFor {
		to := to
		b.Subscribe(t, func(e Event) { b.applyState(transitionTarget(to, e), e) })
	}
}

// transitionTarget refines the static mapping: a failure or timeout with no
// candidates left ends its chain, so it lands in all_failed directly with a
// single derived state_change instead of parking in an intermediate state.
func transitionTarget(to types.State, e Event) types.State {
	if to != types.StateFailed && to != types.StateTimeout {
		return to
	}
	if p, ok := e.Payload.(FailurePayload); ok && p.Remaining == 0 {
		return types.StateAllFailed
	}
	return to
}

func (b *Bus) applyState(to types.State, e Event) {
	id, url, reason := payloadIdentity(e.Payload)
	if id == "" {
		return
	}

	b.smu.Lock()
	rec, ok := b.states[id]
	if !ok {
		rec = &types.StateRecord{ResourceID: id, State: types.StatePending}
		b.states[id] = rec
	}
	from := rec.State
	if from == types.StateLoaded {
		// Terminal: a stale timeout or a duplicate late success must not
		// regress a loaded resource.
		b.smu.Unlock()
		b.log.Debug().Str("resource", id).Str("event", string(e.Type)).
			Msg("ignoring transition for loaded resource")
		return
	}
	if from == types.StateAllFailed && to != types.StateLoading {
		// all_failed ends a fallback cycle; only a fresh loading_start
		// (a new cycle) moves the resource again.
		b.smu.Unlock()
		b.log.Debug().Str("resource", id).Str("event", string(e.Type)).
			Msg("ignoring transition for exhausted resource")
		return
	}
	rec.State = to
	rec.Reason = reason
	if url != "" {
		rec.URL = url
	}
	rec.UpdatedAt = e.Timestamp
	rec.History = append(rec.History, types.Transition{State: to, Reason: reason, At: e.Timestamp})
	b.smu.Unlock()

	stateGauge.WithLabelValues(string(to)).Inc()
	if from != types.StatePending {
		stateGauge.WithLabelValues(string(from)).Dec()
	}

	b.Emit(TypeStateChange, StateChangePayload{
		ResourceID: id,
		From:       from,
		To:         to,
		URL:        url,
		Reason:     reason,
	})
}

// GetState returns a copy of the record for id. Ids never touched read as
// pending with an empty history.
func (b *Bus) GetState(id string) types.StateRecord {
	b.smu.RLock()
	defer b.smu.RUnlock()
	rec, ok := b.states[id]
	if !ok {
		return types.StateRecord{ResourceID: id, State: types.StatePending}
	}
	out := *rec
	out.History = append([]types.Transition(nil), rec.History...)
	return out
}

// IsInState reports whether id currently sits in any of the given states.
func (b *Bus) IsInState(id string, states ...types.State) bool {
	cur := b.GetState(id).State
	for _, s := range states {
		if cur == s {
			return true
		}
	}
	return false
}

// IsLoaded reports whether id reached loaded.
func (b *Bus) IsLoaded(id string) bool { return b.IsInState(id, types.StateLoaded) }

// StateCounts tallies tracked resources by current state for /status.
func (b *Bus) StateCounts() map[string]int {
	b.smu.RLock()
	defer b.smu.RUnlock()
	out := make(map[string]int, len(b.states))
	for _, rec := range b.states {
		out[string(rec.State)]++
	}
	return out
}

// ResetState clears history for the given ids, or for every resource when
// called with none. Test helper; production code never resets.
func (b *Bus) ResetState(ids ...string) {
	b.smu.Lock()
	defer b.smu.Unlock()
	if len(ids) == 0 {
		b.states = make(map[string]*types.StateRecord)
		return
	}
	for _, id := range ids {
		delete(b.states, id)
	}
}
