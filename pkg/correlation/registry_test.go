package correlation_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/joeydtaylor/steeze-rpc/pkg/correlation"
)

var errStop = errors.New("stopped")

func TestRegisterResolve(t *testing.T) {
	r := correlation.NewRegistry[int]()
	s, err := r.Register("a")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if s.ID() != "a" {
		t.Fatalf("slot id = %q", s.ID())
	}
	if !r.Resolve("a", 42) {
		t.Fatalf("Resolve returned false for pending id")
	}
	o := <-s.Done()
	if o.Err != nil || o.Value != 42 {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
	if r.Resolve("a", 43) {
		t.Fatalf("second Resolve must report unknown id")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := correlation.NewRegistry[string]()
	if _, err := r.Register("dup"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := r.Register("dup"); !errors.Is(err, correlation.ErrDuplicateCorrelationID) {
		t.Fatalf("expected ErrDuplicateCorrelationID, got %v", err)
	}
}

func TestUnknownIDsAreNoops(t *testing.T) {
	r := correlation.NewRegistry[int]()
	if r.Resolve("nope", 1) || r.Reject("nope", errStop) || r.Cancel("nope", errStop) || r.Remove("nope") {
		t.Fatalf("operations on unknown ids must return false")
	}
}

func TestCancelThenResolve(t *testing.T) {
	r := correlation.NewRegistry[int]()
	s, _ := r.Register("x")
	if !r.Cancel("x", errStop) {
		t.Fatalf("Cancel returned false")
	}
	if r.Resolve("x", 1) {
		t.Fatalf("Resolve after Cancel must be a no-op")
	}
	if o := <-s.Done(); !errors.Is(o.Err, errStop) {
		t.Fatalf("expected cancellation outcome, got %+v", o)
	}
}

func TestRemoveDoesNotComplete(t *testing.T) {
	r := correlation.NewRegistry[int]()
	s, _ := r.Register("x")
	if !r.Remove("x") {
		t.Fatalf("Remove returned false")
	}
	select {
	case o := <-s.Done():
		t.Fatalf("removed slot must not complete, got %+v", o)
	default:
	}
}

func TestIndependentSlots(t *testing.T) {
	r := correlation.NewRegistry[int]()
	a, _ := r.Register("a")
	b, _ := r.Register("b")
	r.Resolve("a", 1)

	select {
	case o := <-b.Done():
		t.Fatalf("b completed unexpectedly: %+v", o)
	default:
	}
	if r.Len() != 1 {
		t.Fatalf("expected b to stay pending")
	}
	if o := <-a.Done(); o.Value != 1 {
		t.Fatalf("a = %+v", o)
	}
}

func TestCancelAllClosesRegistry(t *testing.T) {
	r := correlation.NewRegistry[int]()
	slots := make([]*correlation.Slot[int], 0, 5)
	for i := 0; i < 5; i++ {
		s, err := r.Register(fmt.Sprintf("id-%d", i))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		slots = append(slots, s)
	}
	if n := r.CancelAll(errStop); n != 5 {
		t.Fatalf("CancelAll cancelled %d, want 5", n)
	}
	for _, s := range slots {
		if o := <-s.Done(); !errors.Is(o.Err, errStop) {
			t.Fatalf("slot %s: %+v", s.ID(), o)
		}
	}
	if _, err := r.Register("late"); !errors.Is(err, correlation.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// Resolve and CancelAll racing on the same ids must produce exactly one outcome per slot.
func TestResolveRacesCancelAll(t *testing.T) {
	for round := 0; round < 50; round++ {
		r := correlation.NewRegistry[int]()
		const n = 64
		slots := make([]*correlation.Slot[int], n)
		for i := range slots {
			slots[i], _ = r.Register(fmt.Sprintf("%d", i))
		}

		var resolved, wg sync.WaitGroup
		var wins atomic.Int64
		resolved.Add(1)
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				resolved.Wait()
				if r.Resolve(fmt.Sprintf("%d", i), i) {
					wins.Add(1)
				}
			}(i)
		}
		resolved.Done()
		cancelled := r.CancelAll(errStop)
		wg.Wait()

		if int(wins.Load())+cancelled != n {
			t.Fatalf("round %d: %d resolved + %d cancelled != %d", round, wins.Load(), cancelled, n)
		}
		for _, s := range slots {
			<-s.Done()
			select {
			case o := <-s.Done():
				t.Fatalf("slot %s completed twice: %+v", s.ID(), o)
			default:
			}
		}
	}
}
