package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if !IsOpen(err) {
		t.Fatalf("expected open-state rejection, got %v", err)
	}

	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestCircuitBreaker_IsSuccessfulIgnoresErrors(t *testing.T) {
	cfg := DefaultConfig("ignore")
	cfg.FailureThreshold = 1
	notFound := errors.New("not found")
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, notFound) }

	cb := New[int](cfg)
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, notFound })
	}

	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed, got %s", cb.State())
	}
	if cb.Name() != "ignore" {
		t.Fatalf("unexpected name %q", cb.Name())
	}
}
