package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	failures int // fail this many calls, then succeed
	calls    int
}

func (f *flakyNotifier) SendTaskAssigned(ctx context.Context, in TaskAssignedInput) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("provider down")
	}
	return nil
}

func (f *flakyNotifier) SendTaskCompleted(ctx context.Context, in TaskCompletedInput) error {
	return f.SendTaskAssigned(ctx, TaskAssignedInput{})
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{failures: 100}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 3,
		Cooldown:         time.Hour,
	})

	ctx := context.Background()
	in := TaskAssignedInput{UserID: "u-1", TaskID: "t-1"}

	for i := 0; i < 3; i++ {
		if err := n.SendTaskAssigned(ctx, in); err == nil {
			t.Fatalf("call %d should have failed", i)
		}
	}

	// circuit is open now, inner must not be called again
	before := inner.calls

	if err := n.SendTaskAssigned(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	if inner.calls != before {
		t.Fatal("inner notifier called while circuit open")
	}
}

func TestCircuitRecoversThroughHalfOpen(t *testing.T) {
	inner := &flakyNotifier{failures: 3}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 3,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()
	in := TaskAssignedInput{UserID: "u-1"}

	for i := 0; i < 3; i++ {
		_ = n.SendTaskAssigned(ctx, in)
	}

	time.Sleep(20 * time.Millisecond)

	// half-open trial call succeeds and closes the circuit
	if err := n.SendTaskAssigned(ctx, in); err != nil {
		t.Fatalf("half-open trial should succeed: %v", err)
	}

	if err := n.SendTaskAssigned(ctx, in); err != nil {
		t.Fatalf("circuit should be closed again: %v", err)
	}
}
