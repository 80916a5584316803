package annotations

import "sync"

// subscribers is a registry of change listeners. Every snapshot carries the
// version stamped under the owning cache's lock; deliveries are serialised
// and a snapshot older than the last one delivered is dropped, so listeners
// always end on the latest committed state.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func([]T)

	version uint64 // guarded by the owning cache's lock

	deliver   sync.Mutex
	delivered uint64
}

func (s *subscribers[T]) add(fn func([]T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func([]T))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// stamp returns the version of the change being committed; callers hold the
// cache's write lock
func (s *subscribers[T]) stamp() uint64 {
	s.version++
	return s.version
}

// publish calls every listener with its own copy of items. Listeners must
// not modify the cache they subscribed to.
func (s *subscribers[T]) publish(version uint64, items []T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.mu.Lock()
	fns := make([]func([]T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		snapshot := make([]T, len(items))
		copy(snapshot, items)
		fn(snapshot)
	}
}
