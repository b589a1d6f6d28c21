package reactive

import (
	"fmt"
	"slices"
)

// Target is a raw composite container that can be wrapped. It is implemented
// only by Record, List, Map and Set.
//
// The raw methods are the untracked primitives the wrappers build on.
type Target interface {
	rawGet(k Key) (any, bool)
	rawSet(k Key, v any)
	rawHas(k Key) bool
	rawKeys() []Key
	rawDelete(k Key) bool
}

// =============================================================================
// Record
// =============================================================================

// Record is an ordered, string-keyed plain record. Its methods do not track;
// wrap it with Runtime.Reactive to observe it.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates a record from alternating name/value pairs.
// It panics if pairs has odd length or a name is not a string.
func NewRecord(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("reactive: NewRecord requires name/value pairs")
	}
	r := &Record{values: make(map[string]any, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("reactive: NewRecord field name must be a string, got %T", pairs[i]))
		}
		r.Set(name, pairs[i+1])
	}
	return r
}

// Get returns the field value and whether it exists.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set stores a field, appending the name if it is new.
func (r *Record) Set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Has reports whether the field exists.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Delete removes a field and reports whether it existed.
func (r *Record) Delete(name string) bool {
	if _, ok := r.values[name]; !ok {
		return false
	}
	delete(r.values, name)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == name })
	return true
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

func (r *Record) rawGet(k Key) (any, bool) {
	if k.Kind != KeyProp {
		return nil, false
	}
	return r.Get(k.Name)
}

func (r *Record) rawSet(k Key, v any) {
	if k.Kind == KeyProp {
		r.Set(k.Name, v)
	}
}

func (r *Record) rawHas(k Key) bool {
	return k.Kind == KeyProp && r.Has(k.Name)
}

func (r *Record) rawKeys() []Key {
	keys := make([]Key, len(r.keys))
	for i, name := range r.keys {
		keys[i] = Prop(name)
	}
	return keys
}

func (r *Record) rawDelete(k Key) bool {
	return k.Kind == KeyProp && r.Delete(k.Name)
}

// =============================================================================
// List
// =============================================================================

// List is a growable indexed sequence.
type List struct {
	items []any
}

// NewList creates a list holding vals.
func NewList(vals ...any) *List {
	return &List{items: slices.Clone(vals)}
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.items)
}

// At returns the element at i, or nil when i is out of range.
func (l *List) At(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// SetAt stores v at i, growing the list with nil elements when i is past the end.
// Negative indices are ignored.
func (l *List) SetAt(i int, v any) {
	if i < 0 {
		return
	}
	if i >= len(l.items) {
		l.SetLen(i + 1)
	}
	l.items[i] = v
}

// SetLen truncates or extends the list to n elements.
func (l *List) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(l.items) {
		clear(l.items[n:])
		l.items = l.items[:n]
		return
	}
	l.items = append(l.items, make([]any, n-len(l.items))...)
}

// Append adds vals to the end of the list.
func (l *List) Append(vals ...any) {
	l.items = append(l.items, vals...)
}

// Values returns a copy of the elements.
func (l *List) Values() []any {
	return slices.Clone(l.items)
}

func (l *List) rawGet(k Key) (any, bool) {
	switch k.Kind {
	case KeyLength:
		return len(l.items), true
	case KeyIndex:
		if k.Index < 0 || k.Index >= len(l.items) {
			return nil, false
		}
		return l.items[k.Index], true
	}
	return nil, false
}

func (l *List) rawSet(k Key, v any) {
	switch k.Kind {
	case KeyLength:
		n, _ := v.(int)
		l.SetLen(n)
	case KeyIndex:
		l.SetAt(k.Index, v)
	}
}

func (l *List) rawHas(k Key) bool {
	_, ok := l.rawGet(k)
	return ok
}

func (l *List) rawKeys() []Key {
	keys := make([]Key, len(l.items))
	for i := range l.items {
		keys[i] = Index(i)
	}
	return keys
}

// rawDelete clears the slot at the index. The list keeps its length.
func (l *List) rawDelete(k Key) bool {
	if k.Kind != KeyIndex || k.Index < 0 || k.Index >= len(l.items) {
		return false
	}
	l.items[k.Index] = nil
	return true
}

// =============================================================================
// Map
// =============================================================================

// Map is an insertion-ordered map with comparable keys.
type Map struct {
	keys   []any
	values map[any]any
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[any]any)}
}

// Get returns the value stored under k and whether it exists.
func (m *Map) Get(k any) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Set stores v under k.
func (m *Map) Set(k, v any) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Has reports whether k exists.
func (m *Map) Has(k any) bool {
	_, ok := m.values[k]
	return ok
}

// Delete removes k and reports whether it existed.
func (m *Map) Delete(k any) bool {
	if _, ok := m.values[k]; !ok {
		return false
	}
	delete(m.values, k)
	m.keys = slices.DeleteFunc(m.keys, func(x any) bool { return x == k })
	return true
}

// Clear removes every entry.
func (m *Map) Clear() {
	m.keys = nil
	clear(m.values)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	return slices.Clone(m.keys)
}

func (m *Map) rawGet(k Key) (any, bool) {
	if k.Kind != KeyEntry {
		return nil, false
	}
	return m.Get(k.Entry)
}

func (m *Map) rawSet(k Key, v any) {
	if k.Kind == KeyEntry {
		m.Set(k.Entry, v)
	}
}

func (m *Map) rawHas(k Key) bool {
	return k.Kind == KeyEntry && m.Has(k.Entry)
}

func (m *Map) rawKeys() []Key {
	keys := make([]Key, len(m.keys))
	for i, k := range m.keys {
		keys[i] = Entry(k)
	}
	return keys
}

func (m *Map) rawDelete(k Key) bool {
	return k.Kind == KeyEntry && m.Delete(k.Entry)
}

// =============================================================================
// Set
// =============================================================================

// Set is an insertion-ordered set of comparable members.
type Set struct {
	members []any
	index   map[any]struct{}
}

// NewSet creates a set holding vals.
func NewSet(vals ...any) *Set {
	s := &Set{index: make(map[any]struct{}, len(vals))}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was new.
func (s *Set) Add(v any) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.members = append(s.members, v)
	return true
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	_, ok := s.index[v]
	return ok
}

// Delete removes v and reports whether it was a member.
func (s *Set) Delete(v any) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	s.members = slices.DeleteFunc(s.members, func(x any) bool { return x == v })
	return true
}

// Clear removes every member.
func (s *Set) Clear() {
	s.members = nil
	clear(s.index)
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.members)
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	return slices.Clone(s.members)
}

func (s *Set) rawGet(k Key) (any, bool) {
	if k.Kind != KeyEntry || !s.Has(k.Entry) {
		return nil, false
	}
	return k.Entry, true
}

func (s *Set) rawSet(k Key, _ any) {
	if k.Kind == KeyEntry {
		s.Add(k.Entry)
	}
}

func (s *Set) rawHas(k Key) bool {
	return k.Kind == KeyEntry && s.Has(k.Entry)
}

func (s *Set) rawKeys() []Key {
	keys := make([]Key, len(s.members))
	for i, v := range s.members {
		keys[i] = Entry(v)
	}
	return keys
}

func (s *Set) rawDelete(k Key) bool {
	return k.Kind == KeyEntry && s.Delete(k.Entry)
}

// targetKind names the kind of a tracked identity for logs and metrics.
func targetKind(t any) string {
	switch t.(type) {
	case *Record:
		return "record"
	case *List:
		return "list"
	case *Map:
		return "map"
	case *Set:
		return "set"
	case cell:
		return "cell"
	default:
		return "unknown"
	}
}
