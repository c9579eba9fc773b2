package cache

import (
	"sync"
	"time"
)

// Snapshot is a single-value TTL store owned by one upstream source. It
// keeps the last stored value together with its fetch time; readers choose
// between Fresh (TTL-gated) and Last (any age, for stale-while-error).
type Snapshot[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	populated bool

	ttl time.Duration
	now func() time.Time
}

func NewSnapshot[T any](ttl time.Duration) *Snapshot[T] {
	return &Snapshot[T]{
		ttl: ttl,
		now: time.Now,
	}
}

// Fresh returns the stored value and its fetch time iff the entry exists
// and its age is below the TTL.
func (s *Snapshot[T]) Fresh() (T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.populated || s.now().Sub(s.fetchedAt) >= s.ttl {
		var zero T
		return zero, time.Time{}, false
	}
	return s.value, s.fetchedAt, true
}

// Last returns the stored value regardless of age, with its fetch time.
func (s *Snapshot[T]) Last() (T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.populated {
		var zero T
		return zero, time.Time{}, false
	}
	return s.value, s.fetchedAt, true
}

// Store replaces the value and stamps it with the current time. Snapshots
// are replaced whole, never merged.
func (s *Snapshot[T]) Store(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.fetchedAt = s.now()
	s.populated = true
}
