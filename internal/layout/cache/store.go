package cache

type slot[V any] struct {
	value V
	used  uint64
}

// store is a map with last-use tracking for idle sweeps.
type store[K comparable, V any] struct {
	entries map[K]*slot[V]
	hits    uint64
	misses  uint64
	evicted uint64
}

func newStore[K comparable, V any]() *store[K, V] {
	return &store[K, V]{entries: make(map[K]*slot[V])}
}

func (s *store[K, V]) get(k K, pass uint64) (V, bool) {
	e, ok := s.entries[k]
	if !ok {
		s.misses++
		var zero V
		return zero, false
	}
	s.hits++
	e.used = pass
	return e.value, true
}

func (s *store[K, V]) put(k K, v V, pass uint64) {
	if e, ok := s.entries[k]; ok {
		e.value, e.used = v, pass
		return
	}
	s.entries[k] = &slot[V]{value: v, used: pass}
}

func (s *store[K, V]) sweep(pass, idle uint64) {
	for k, e := range s.entries {
		if pass-e.used >= idle {
			delete(s.entries, k)
			s.evicted++
		}
	}
}

func (s *store[K, V]) resetCounters() { s.hits, s.misses, s.evicted = 0, 0, 0 }

func (s *store[K, V]) counters() Counters {
	return Counters{Hits: s.hits, Misses: s.misses, Evicted: s.evicted, Entries: len(s.entries)}
}

func (s *store[K, V]) clear() { clear(s.entries) }

// each visits entries in unspecified order.
func (s *store[K, V]) each(fn func(K, V)) {
	for k, e := range s.entries {
		fn(k, e.value)
	}
}
