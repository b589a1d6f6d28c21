package reactive

import "iter"

// Collections cannot be observed through Read/Write alone: their methods are
// instrumented one by one. Each method works on the raw target, then tracks or
// triggers explicitly with the same rules as Write and DeleteKey.
//
// Keys and values are stored raw; values read back are wrapped unless the
// wrapper is shallow.

// ReactiveMap is the wrapper of a Map.
type ReactiveMap struct {
	base
}

func (m *ReactiveMap) raw() *Map {
	return ToRaw(m).(*Map)
}

// Get returns the value under k, tracking the entry.
func (m *ReactiveMap) Get(k any) any {
	k = ToRaw(k)
	m.track(Entry(k))
	v, _ := m.raw().Get(k)
	return m.wrapValue(v)
}

// Set stores v under k. A new key notifies size, key and value iteration; an
// overwrite notifies value iteration.
func (m *ReactiveMap) Set(k, v any) bool {
	if m.readonly() {
		m.warnReadonly("set", Entry(k))
		return true
	}
	k, v = ToRaw(k), ToRaw(v)
	raw := m.raw()
	old, had := raw.Get(k)
	raw.Set(k, v)
	switch {
	case !had:
		m.trigger(Entry(k), OpAdd, v)
	case hasChanged(old, v):
		m.trigger(Entry(k), OpSet, v)
	}
	return true
}

// Has reports whether k exists, tracking the entry.
func (m *ReactiveMap) Has(k any) bool {
	k = ToRaw(k)
	m.track(Entry(k))
	return m.raw().Has(k)
}

// Delete removes k and reports whether it existed.
func (m *ReactiveMap) Delete(k any) bool {
	if m.readonly() {
		m.warnReadonly("delete", Entry(k))
		return true
	}
	k = ToRaw(k)
	if !m.raw().Delete(k) {
		return false
	}
	m.trigger(Entry(k), OpDelete, nil)
	return true
}

// Clear removes every entry, notifying every dependent of the map.
func (m *ReactiveMap) Clear() {
	if m.readonly() {
		m.warnReadonly("clear", IterateKey)
		return
	}
	raw := m.raw()
	had := raw.Len() > 0
	raw.Clear()
	if had {
		m.trigger(IterateKey, OpClear, nil)
	}
}

// Size returns the number of entries, tracking iteration.
func (m *ReactiveMap) Size() int {
	m.track(IterateKey)
	return m.raw().Len()
}

// ForEach calls fn for every entry in insertion order, tracking iteration.
func (m *ReactiveMap) ForEach(fn func(v, k any)) {
	for k, v := range m.Entries() {
		fn(v, k)
	}
}

// Entries iterates over key/value pairs, tracking iteration.
func (m *ReactiveMap) Entries() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		m.track(IterateKey)
		raw := m.raw()
		for _, k := range raw.Keys() {
			v, ok := raw.Get(k)
			if !ok {
				continue
			}
			if !yield(m.wrapValue(k), m.wrapValue(v)) {
				return
			}
		}
	}
}

// Keys returns the keys. It depends only on the key set, so overwriting a
// value does not re-run a reader of Keys.
func (m *ReactiveMap) Keys() []any {
	m.track(MapKeysKey)
	keys := m.raw().Keys()
	for i, k := range keys {
		keys[i] = m.wrapValue(k)
	}
	return keys
}

// Values returns the values, tracking iteration.
func (m *ReactiveMap) Values() []any {
	var out []any
	for _, v := range m.Entries() {
		out = append(out, v)
	}
	return out
}

// ReactiveSet is the wrapper of a Set.
type ReactiveSet struct {
	base
}

func (s *ReactiveSet) raw() *Set {
	return ToRaw(s).(*Set)
}

// Add inserts v. Adding a new member notifies size and iteration.
func (s *ReactiveSet) Add(v any) bool {
	if s.readonly() {
		s.warnReadonly("add", Entry(v))
		return true
	}
	v = ToRaw(v)
	if s.raw().Add(v) {
		s.trigger(Entry(v), OpAdd, v)
	}
	return true
}

// Has reports whether v is a member, tracking it.
func (s *ReactiveSet) Has(v any) bool {
	v = ToRaw(v)
	s.track(Entry(v))
	return s.raw().Has(v)
}

// Delete removes v and reports whether it was a member.
func (s *ReactiveSet) Delete(v any) bool {
	if s.readonly() {
		s.warnReadonly("delete", Entry(v))
		return true
	}
	v = ToRaw(v)
	if !s.raw().Delete(v) {
		return false
	}
	s.trigger(Entry(v), OpDelete, nil)
	return true
}

// Clear removes every member.
func (s *ReactiveSet) Clear() {
	if s.readonly() {
		s.warnReadonly("clear", IterateKey)
		return
	}
	raw := s.raw()
	had := raw.Len() > 0
	raw.Clear()
	if had {
		s.trigger(IterateKey, OpClear, nil)
	}
}

// Size returns the number of members, tracking iteration.
func (s *ReactiveSet) Size() int {
	s.track(IterateKey)
	return s.raw().Len()
}

// All iterates over the members, tracking iteration.
func (s *ReactiveSet) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		s.track(IterateKey)
		for _, v := range s.raw().Values() {
			if !yield(s.wrapValue(v)) {
				return
			}
		}
	}
}

// ForEach calls fn for every member in insertion order.
func (s *ReactiveSet) ForEach(fn func(v any)) {
	for v := range s.All() {
		fn(v)
	}
}

// Values returns the members, tracking iteration.
func (s *ReactiveSet) Values() []any {
	var out []any
	for v := range s.All() {
		out = append(out, v)
	}
	return out
}
