package memory

import "sync"

// rows is the storage view a repository works against: either the committed
// table or a unit's staged overlay.
type rows[K comparable, V any] interface {
	get(k K) (V, bool)
	put(k K, v V)
	remove(k K) bool
	all() []V
}

type table[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]V
	clone   func(V) V
	version func(V) *int64
}

func newTable[K comparable, V any](clone func(V) V, version func(V) *int64) *table[K, V] {
	return &table[K, V]{items: make(map[K]V), clone: clone, version: version}
}

func (t *table[K, V]) get(k K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[k]
	if !ok {
		var zero V
		return zero, false
	}
	return t.clone(v), true
}

func (t *table[K, V]) put(k K, v V) {
	t.bump(v)
	t.store(k, t.clone(v))
}

func (t *table[K, V]) store(k K, v V) {
	t.mu.Lock()
	t.items[k] = v
	t.mu.Unlock()
}

func (t *table[K, V]) remove(k K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.items[k]
	delete(t.items, k)
	return ok
}

func (t *table[K, V]) all() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]V, 0, len(t.items))
	for _, v := range t.items {
		out = append(out, t.clone(v))
	}
	return out
}

func (t *table[K, V]) versionOf(k K) int64 {
	if t.version == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[k]
	if !ok {
		return 0
	}
	return *t.version(v)
}

func (t *table[K, V]) bump(v V) {
	if t.version != nil {
		*t.version(v)++
	}
}

// staged buffers writes of one unit until commit.
type staged[K comparable, V any] struct {
	base    *table[K, V]
	writes  map[K]V
	deletes map[K]bool
	origin  map[K]int64
}

func newStaged[K comparable, V any](base *table[K, V]) *staged[K, V] {
	return &staged[K, V]{
		base:    base,
		writes:  make(map[K]V),
		deletes: make(map[K]bool),
		origin:  make(map[K]int64),
	}
}

func (s *staged[K, V]) get(k K) (V, bool) {
	if s.deletes[k] {
		var zero V
		return zero, false
	}
	if v, ok := s.writes[k]; ok {
		return s.base.clone(v), true
	}
	return s.base.get(k)
}

func (s *staged[K, V]) put(k K, v V) {
	if _, seen := s.origin[k]; !seen && s.base.version != nil {
		s.origin[k] = *s.base.version(v)
	}
	s.base.bump(v)
	s.writes[k] = s.base.clone(v)
	delete(s.deletes, k)
}

func (s *staged[K, V]) remove(k K) bool {
	_, ok := s.get(k)
	delete(s.writes, k)
	s.deletes[k] = true
	return ok
}

func (s *staged[K, V]) all() []V {
	s.base.mu.RLock()
	keys := make([]K, 0, len(s.base.items))
	for k := range s.base.items {
		keys = append(keys, k)
	}
	s.base.mu.RUnlock()

	out := make([]V, 0, len(keys)+len(s.writes))
	for _, v := range s.writes {
		out = append(out, s.base.clone(v))
	}
	for _, k := range keys {
		if _, written := s.writes[k]; written || s.deletes[k] {
			continue
		}
		if v, ok := s.base.get(k); ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *staged[K, V]) conflict() bool {
	for k, want := range s.origin {
		if s.base.versionOf(k) != want {
			return true
		}
	}
	return false
}

func (s *staged[K, V]) apply() {
	for k, v := range s.writes {
		s.base.store(k, v)
	}
	for k := range s.deletes {
		s.base.remove(k)
	}
	s.reset()
}

func (s *staged[K, V]) reset() {
	s.writes = make(map[K]V)
	s.deletes = make(map[K]bool)
	s.origin = make(map[K]int64)
}
