package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		Cooldown:         20 * time.Millisecond,
		OnStateChange:    func(_ string, to State) { transitions = append(transitions, to) },
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: err = %v, want boom", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker ran fn (called=%v, err=%v)", called, err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreakerHalfOpenAllowsOneTrial(t *testing.T) {
	clock := time.Unix(0, 0)
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	cb.now = func() time.Time { return clock }
	boom := errors.New("boom")

	cb.Execute(func() error { return boom })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	clock = clock.Add(time.Minute)

	release := make(chan struct{})
	trialDone := make(chan error)
	go func() {
		trialDone <- cb.Execute(func() error { <-release; return boom })
	}()
	for cb.State() != StateHalfOpen {
		time.Sleep(time.Millisecond)
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second half-open call err = %v, want ErrCircuitOpen", err)
	}
	close(release)
	if err := <-trialDone; !errors.Is(err, boom) {
		t.Fatalf("trial err = %v, want boom", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("failed trial left state %v, want open", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("reopened breaker err = %v, want ErrCircuitOpen", err)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}

	err = WithTimeout(context.Background(), time.Second, "fast", func(context.Context) error { return nil })
	if err != nil {
		t.Errorf("fast fn: %v", err)
	}
}
