package store

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Store holds a value and notifies subscribers when it changes.
type Store[T any] struct {
	id uint64

	mu      sync.RWMutex
	value   T
	version uint64
	subs    map[uint64]func(T)
	nextSub uint64
}

// New creates a store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		id:    nextID(),
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version returns a counter incremented on every change.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the value. Subscribers are notified, in subscription order and
// outside the store's lock, only when the value changed under hooks.Equal.
func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	if hooks.Equal(s.value, value) {
		s.mu.Unlock()
		return
	}
	s.value = value
	s.version++
	fns := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Update applies fn to the current value atomically and notifies subscribers
// if the result differs.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if hooks.Equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	s.version++
	fns := s.subscribersLocked()
	s.mu.Unlock()

	for _, f := range fns {
		f(next)
	}
}

// Subscribe registers fn to be called with every new value. The returned
// function removes the subscription; calling it more than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Store[T]) subscribersLocked() []func(T) {
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	return fns
}
