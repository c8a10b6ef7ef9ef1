package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"assetd/pkg/types"
)

func TestWaitForState_AlreadySatisfied(t *testing.T) {
	b := New()
	b.Emit(TypeLoadingStart, load("r", "u"))
	b.Emit(TypeLoadingSuccess, load("r", "u"))
	if _, err := b.WaitForState(context.Background(), "r", nil, time.Second); err != nil {
		t.Fatalf("wait on loaded resource: %v", err)
	}
}

func TestWaitForState_ResolvesOnTransition(t *testing.T) {
	b := New()
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitForState(context.Background(), "r", nil, 5*time.Second)
		done <- err
	}()
	// The waiter re-checks after subscribing, so either interleaving works.
	b.Emit(TypeLoadingStart, load("r", "u"))
	b.Emit(TypeLoadingSuccess, load("r", "u"))
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resolved")
	}
}

func TestWaitForState_AcceptsAnyListedState(t *testing.T) {
	b := New()
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitForState(context.Background(), "r",
			[]types.State{types.StateLoaded, types.StateFailed}, 5*time.Second)
		done <- err
	}()
	b.Emit(TypeLoadingStart, load("r", "u"))
	b.Emit(TypeLoadingFailure, FailurePayload{LoadPayload: load("r", "u"), Reason: types.ReasonLoadError})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resolved")
	}
}

func TestWaitForState_Timeout(t *testing.T) {
	mock := clock.NewMock()
	b := NewWithConfig(Config{Clock: mock})
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitForState(context.Background(), "r", nil, 10*time.Second)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond) // let the waiter arm its timer
	mock.Add(10 * time.Second)
	select {
	case err := <-done:
		if !errors.Is(err, ErrWaitTimeout) {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter ignored the deadline")
	}
}

func TestWaitForState_ContextCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitForState(ctx, "r", nil, time.Minute)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter ignored cancellation")
	}
}

func TestWaitForState_OtherResourceDoesNotResolve(t *testing.T) {
	mock := clock.NewMock()
	b := NewWithConfig(Config{Clock: mock})
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitForState(context.Background(), "wanted", nil, time.Second)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	b.Emit(TypeLoadingStart, load("other", "u"))
	b.Emit(TypeLoadingSuccess, load("other", "u"))
	mock.Add(time.Second)
	select {
	case err := <-done:
		if !errors.Is(err, ErrWaitTimeout) {
			t.Fatalf("resolved by unrelated resource: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never returned")
	}
}
