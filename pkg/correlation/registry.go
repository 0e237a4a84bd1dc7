// pkg/correlation/registry.go
package correlation

import (
	"errors"
	"sync"
)

var (
	// ErrDuplicateCorrelationID is a programming error: ids are generated unique per call.
	ErrDuplicateCorrelationID = errors.New("correlation: duplicate correlation id")
	// ErrClosed is returned by Register after CancelAll shut the registry down.
	ErrClosed = errors.New("correlation: registry closed")
)

// Outcome is the single value delivered to a Slot.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Slot is a single-assignment completion for one pending call.
type Slot[T any] struct {
	id string
	ch chan Outcome[T]
}

// ID returns the correlation id the slot was registered under.
func (s *Slot[T]) ID() string { return s.id }

// Done yields exactly one Outcome once the slot is completed.
func (s *Slot[T]) Done() <-chan Outcome[T] { return s.ch }

// complete never blocks: the channel has room for the only value it will ever receive.
func (s *Slot[T]) complete(o Outcome[T]) { s.ch <- o }

// Registry maps outstanding correlation ids to their slots.
// Every completing operation removes the entry first, so at most one of
// Resolve, Reject and Cancel succeeds per id.
type Registry[T any] struct {
	mu      sync.Mutex
	pending map[string]*Slot[T]
	closed  bool
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{pending: make(map[string]*Slot[T])}
}

// Register inserts an empty slot for id.
func (r *Registry[T]) Register(id string) (*Slot[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if _, dup := r.pending[id]; dup {
		return nil, ErrDuplicateCorrelationID
	}
	s := &Slot[T]{id: id, ch: make(chan Outcome[T], 1)}
	r.pending[id] = s
	return s, nil
}

// Resolve completes id with v. It returns false when id is unknown,
// already resolved, timed out or cancelled; the value is then discarded.
func (r *Registry[T]) Resolve(id string, v T) bool {
	s := r.take(id)
	if s == nil {
		return false
	}
	s.complete(Outcome[T]{Value: v})
	return true
}

// Reject completes id with err.
func (r *Registry[T]) Reject(id string, err error) bool {
	s := r.take(id)
	if s == nil {
		return false
	}
	s.complete(Outcome[T]{Err: err})
	return true
}

// Cancel completes id with cause (a timeout or cancellation signal).
func (r *Registry[T]) Cancel(id string, cause error) bool {
	return r.Reject(id, cause)
}

// Remove drops id without completing its slot. Used when nobody will wait on it.
func (r *Registry[T]) Remove(id string) bool {
	return r.take(id) != nil
}

// CancelAll completes every pending slot with cause and closes the registry
// to further registrations. It returns the number of slots cancelled.
func (r *Registry[T]) CancelAll(cause error) int {
	r.mu.Lock()
	drained := r.pending
	r.pending = make(map[string]*Slot[T])
	r.closed = true
	r.mu.Unlock()

	for _, s := range drained {
		s.complete(Outcome[T]{Err: cause})
	}
	return len(drained)
}

// Len returns the number of outstanding calls.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry[T]) take(id string) *Slot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return s
}
