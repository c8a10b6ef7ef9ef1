package eventbus

import (
	"testing"

	"assetd/pkg/types"
)

func load(id, url string) LoadPayload {
	return LoadPayload{ResourceID: id, URL: url, Kind: types.KindScript, Group: "test"}
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	b := New()
	var got []int
	b.Subscribe(TypeLoadingStart, func(Event) { got = append(got, 1) })
	b.Subscribe(TypeLoadingStart, func(Event) { got = append(got, 2) })
	b.Subscribe(TypeLoadingStart, func(Event) { got = append(got, 3) })
	b.Emit(TypeLoadingStart, load("r", "http://a/x.js"))
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("listeners fired out of order: %v", got)
	}
}

func TestUnsubscribe_RemovesExactlyThatListener(t *testing.T) {
	b := New()
	var first, second int
	unsub := b.Subscribe(TypeLoadingStart, func(Event) { first++ })
	b.Subscribe(TypeLoadingStart, func(Event) { second++ })
	b.Emit(TypeLoadingStart, load("r", "u"))
	unsub()
	unsub() // idempotent
	b.Emit(TypeLoadingStart, load("r", "u"))
	if first != 1 {
		t.Fatalf("unsubscribed listener fired: first=%d", first)
	}
	if second != 2 {
		t.Fatalf("sibling listener affected by unsubscribe: second=%d", second)
	}
}

func TestOnce_FiresExactlyOnce(t *testing.T) {
	b := New()
	n := 0
	b.Once(TypeLoadingSuccess, func(Event) { n++ })
	b.Emit(TypeLoadingSuccess, load("r", "u"))
	b.Emit(TypeLoadingSuccess, load("r2", "u2"))
	if n != 1 {
		t.Fatalf("once listener fired %d times", n)
	}
}

func TestOnce_ReentrantEmitCannotDoubleFire(t *testing.T) {
	b := New()
	n := 0
	b.Once(TypeLoadingStart, func(Event) {
		n++
		if n == 1 {
			// Listener is already detached when it runs; this nested emit
			// must not re-enter it.
			b.Emit(TypeLoadingStart, load("nested", "u"))
		}
	})
	b.Emit(TypeLoadingStart, load("outer", "u"))
	if n != 1 {
		t.Fatalf("re-entrant emit fired once listener %d times", n)
	}
}

func TestEmit_PanicIsolated(t *testing.T) {
	b := New()
	var after bool
	b.Subscribe(TypeLoadingStart, func(Event) { panic("boom") })
	b.Subscribe(TypeLoadingStart, func(Event) { after = true })
	b.Emit(TypeLoadingStart, load("r", "u")) // must not panic the caller
	if !after {
		t.Fatal("panicking listener blocked later listeners")
	}
}

func TestSubscribeAll_SeesEveryType_AfterTyped(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe(TypeLoadingStart, func(Event) { order = append(order, "typed") })
	b.SubscribeAll(func(e Event) { order = append(order, "wild:"+string(e.Type)) })
	b.Emit(TypeLoadingStart, load("r", "u"))
	// loading_start dispatch plus the derived state_change both reach the
	// wildcard listener.
	want := []string{"wild:state_change", "typed", "wild:loading_start"}
	if len(order) != len(want) {
		t.Fatalf("order=%v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order=%v want=%v", order, want)
		}
	}
}

func TestLifecycleEventsDriveState(t *testing.T) {
	b := New()
	if got := b.GetState("r").State; got != types.StatePending {
		t.Fatalf("untouched id state=%s", got)
	}
	b.Emit(TypeLoadingStart, load("r", "http://a/x.js"))
	if !b.IsInState("r", types.StateLoading) {
		t.Fatalf("after loading_start state=%s", b.GetState("r").State)
	}
	b.Emit(TypeLoadingSuccess, load("r", "http://a/x.js"))
	if !b.IsLoaded("r") {
		t.Fatalf("after loading_success state=%s", b.GetState("r").State)
	}
	rec := b.GetState("r")
	if len(rec.History) != 2 || rec.History[0].State != types.StateLoading || rec.History[1].State != types.StateLoaded {
		t.Fatalf("history=%+v", rec.History)
	}
}

func TestStateChange_DerivedFromLifecycle(t *testing.T) {
	b := New()
	var changes []StateChangePayload
	b.Subscribe(TypeStateChange, func(e Event) {
		changes = append(changes, e.Payload.(StateChangePayload))
	})
	b.Emit(TypeLoadingStart, load("r", "u"))
	// Mid-chain failure: more candidates remain, so the resource parks in
	// failed rather than ending the cycle.
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("r", "u"), Reason: types.ReasonLoadError, Remaining: 2})
	if len(changes) != 2 {
		t.Fatalf("expected 2 state changes, got %d", len(changes))
	}
	if changes[0].From != types.StatePending || changes[0].To != types.StateLoading {
		t.Fatalf("first change %+v", changes[0])
	}
	if changes[1].From != types.StateLoading || changes[1].To != types.StateFailed || changes[1].Reason != types.ReasonLoadError {
		t.Fatalf("second change %+v", changes[1])
	}
}

func TestFinalFailureLandsAllFailed(t *testing.T) {
	b := New()
	var changes []StateChangePayload
	b.Subscribe(TypeStateChange, func(e Event) {
		changes = append(changes, e.Payload.(StateChangePayload))
	})
	b.Emit(TypeLoadingStart, load("x", "u"))
	// Single-candidate chain: the one failure is terminal and produces
	// exactly one derived state change.
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("x", "u"), Reason: types.ReasonLoadError})
	if !b.IsInState("x", types.StateAllFailed) {
		t.Fatalf("state=%s", b.GetState("x").State)
	}
	if len(changes) != 2 {
		t.Fatalf("state changes %+v", changes)
	}
	if changes[1].From != types.StateLoading || changes[1].To != types.StateAllFailed {
		t.Fatalf("final change %+v", changes[1])
	}
	hist := b.GetState("x").History
	if len(hist) != 2 || hist[0].State != types.StateLoading || hist[1].State != types.StateAllFailed {
		t.Fatalf("history %+v", hist)
	}
}

func TestFinalTimeoutLandsAllFailed(t *testing.T) {
	b := New()
	b.Emit(TypeLoadingStart, load("x", "u"))
	b.Emit(TypeLoadingTimeout, FailurePayload{LoadPayload: load("x", "u"), Reason: types.ReasonTimeout})
	rec := b.GetState("x")
	if rec.State != types.StateAllFailed || rec.Reason != types.ReasonTimeout {
		t.Fatalf("record %+v", rec)
	}
}

func TestLoadedNeverRegresses(t *testing.T) {
	b := New()
	b.Emit(TypeLoadingStart, load("r", "u"))
	b.Emit(TypeLoadingSuccess, load("r", "u"))
	// Stale timeout and duplicate failure arrive after the fact.
	b.Emit(TypeLoadingTimeout, FailurePayload{LoadPayload: load("r", "u"), Reason: types.ReasonTimeout})
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("r", "u"), Reason: types.ReasonLoadError})
	rec := b.GetState("r")
	if rec.State != types.StateLoaded {
		t.Fatalf("loaded regressed to %s", rec.State)
	}
	if len(rec.History) != 2 {
		t.Fatalf("stale events appended history: %+v", rec.History)
	}
}

func TestAllFailed_NewCycleViaLoadingStart(t *testing.T) {
	b := New()
	var stateChanges int
	b.Subscribe(TypeStateChange, func(Event) { stateChanges++ })

	b.Emit(TypeLoadingStart, load("r", "a"))
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("r", "a"), Reason: types.ReasonLoadError})
	if !b.IsInState("r", types.StateAllFailed) {
		t.Fatalf("state=%s", b.GetState("r").State)
	}
	before := stateChanges
	// The exhaustion notification reaches listeners but the state is already
	// terminal, so no extra state_change is derived.
	b.Emit(TypeFallbackFailure, FallbackPayload{ResourceID: "r", URL: "a", Reason: types.ReasonLoadError})
	if stateChanges != before {
		t.Fatalf("exhaustion notification derived a state change")
	}
	// A stale failure cannot move an exhausted resource either.
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("r", "a"), Reason: types.ReasonLoadError})
	if !b.IsInState("r", types.StateAllFailed) {
		t.Fatalf("stale event moved exhausted resource to %s", b.GetState("r").State)
	}
	// A fresh cycle starts over.
	b.Emit(TypeLoadingStart, load("r", "b"))
	if !b.IsInState("r", types.StateLoading) {
		t.Fatalf("new cycle not started: %s", b.GetState("r").State)
	}
}

func TestResetState(t *testing.T) {
	b := New()
	b.Emit(TypeLoadingStart, load("a", "u"))
	b.Emit(TypeLoadingStart, load("b", "u"))
	b.ResetState("a")
	if b.GetState("a").State != types.StatePending {
		t.Fatal("reset one id did not clear it")
	}
	if b.GetState("b").State != types.StateLoading {
		t.Fatal("reset one id cleared the other")
	}
	b.ResetState()
	if b.GetState("b").State != types.StatePending {
		t.Fatal("reset all did not clear")
	}
}

func TestStateCounts(t *testing.T) {
	b := New()
	b.Emit(TypeLoadingStart, load("a", "u"))
	b.Emit(TypeLoadingSuccess, load("a", "u"))
	b.Emit(TypeLoadingStart, load("b", "u"))
	counts := b.StateCounts()
	if counts["loaded"] != 1 || counts["loading"] != 1 {
		t.Fatalf("counts=%v", counts)
	}
}
