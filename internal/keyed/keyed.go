// Package keyed provides a concurrent map whose read-modify-write
// sequences are serialised per key. Operations on different keys never
// wait on each other.
package keyed

import "sync"

// Map holds one lockable slot per key that currently has a value. A slot
// is dropped from the map when its value goes away; a goroutine that
// locked a dropped slot sees it marked dead and retries with a fresh one.
type Map[K comparable, V any] struct {
	slots sync.Map // map[K]*slot[V]
}

type slot[V any] struct {
	mu    sync.Mutex
	value V
	ok    bool
	dead  bool
}

// lock returns the live slot for key with its mutex held.
func (m *Map[K, V]) lock(key K) *slot[V] {
	for {
		v, _ := m.slots.LoadOrStore(key, &slot[V]{})
		s := v.(*slot[V])
		s.mu.Lock()
		if !s.dead {
			return s
		}
		s.mu.Unlock()
	}
}

// unlock releases s, removing it from the map when it holds no value.
func (m *Map[K, V]) unlock(key K, s *slot[V]) {
	if !s.ok {
		s.dead = true
		m.slots.CompareAndDelete(key, s)
	}
	s.mu.Unlock()
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.slots.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	s := v.(*slot[V])
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		var zero V
		return zero, false
	}
	return s.value, s.ok
}

// Set stores value for key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.lock(key)
	s.value, s.ok = value, true
	m.unlock(key, s)
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (m *Map[K, V]) Delete(key K) {
	v, ok := m.slots.Load(key)
	if !ok {
		return
	}
	s := v.(*slot[V])
	s.mu.Lock()
	var zero V
	s.value, s.ok = zero, false
	m.unlock(key, s)
}

// Len reports how many keys hold a value.
func (m *Map[K, V]) Len() int {
	n := 0
	m.slots.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Update runs fn with the current value while holding the key's lock and
// stores what fn returns. When fn reports keep=false the value is removed.
// If fn returns an error nothing is changed.
func (m *Map[K, V]) Update(key K, fn func(cur V, ok bool) (next V, keep bool, err error)) (V, bool, error) {
	s := m.lock(key)
	defer m.unlock(key, s)

	next, keep, err := fn(s.value, s.ok)
	if err != nil {
		return s.value, s.ok, err
	}
	if !keep {
		var zero V
		next = zero
	}
	s.value, s.ok = next, keep
	return s.value, s.ok, nil
}
