package reactive

import (
	"fmt"
	"log/slog"
)

// Flags select a wrapper flavour.
type Flags uint8

const (
	// FlagReadonly wrappers never track and refuse mutation.
	FlagReadonly Flags = 1 << iota
	// FlagShallow wrappers do not wrap nested composites and do not trigger.
	FlagShallow
)

// Proxy is the capability interface every reactive wrapper implements. The
// typed wrappers (ReactiveRecord, ReactiveList, ReactiveMap, ReactiveSet) add
// friendlier accessors on top of it.
type Proxy interface {
	// Read returns the value under k, tracking it for the active effect.
	// Read(RawKey) returns the raw target.
	Read(k Key) any
	// Write stores v under k and triggers dependents if the value changed.
	// It reports success; read-only wrappers warn and still return true.
	Write(k Key, v any) bool
	// HasKey reports whether k exists, tracking it as an existence dependency.
	HasKey(k Key) bool
	// Enumerate returns every key, tracking the key set.
	Enumerate() []Key
	// DeleteKey removes k, triggering dependents if it existed.
	DeleteKey(k Key) bool

	// Raw returns the wrapped target.
	Raw() Target
	// Flags returns the wrapper flavour.
	Flags() Flags
}

// base implements Proxy over any Target.
type base struct {
	rt     *Runtime
	target Target
	flags  Flags
}

func (b *base) Raw() Target  { return b.target }
func (b *base) Flags() Flags { return b.flags }

func (b *base) readonly() bool { return b.flags&FlagReadonly != 0 }
func (b *base) shallow() bool  { return b.flags&FlagShallow != 0 }

// Runtime returns the runtime that owns this wrapper.
func (b *base) Runtime() *Runtime { return b.rt }

func (b *base) Read(k Key) any {
	if k.Kind == KeyRaw {
		return b.target
	}
	v, _ := b.target.rawGet(k)
	if !b.readonly() {
		b.rt.track(b.target, k)
	}
	return b.wrapValue(v)
}

func (b *base) Write(k Key, v any) bool {
	if b.readonly() {
		b.warnReadonly("set", k)
		return true
	}
	v = ToRaw(v)
	old, had := b.target.rawGet(k)
	b.target.rawSet(k, v)
	if b.shallow() {
		return true
	}
	switch {
	case !had:
		b.rt.trigger(b.target, k, OpAdd, v)
	case hasChanged(old, v):
		b.rt.trigger(b.target, k, OpSet, v)
	}
	return true
}

func (b *base) HasKey(k Key) bool {
	if !b.readonly() {
		b.rt.track(b.target, k)
	}
	return b.target.rawHas(k)
}

func (b *base) Enumerate() []Key {
	if !b.readonly() {
		if _, ok := b.target.(*List); ok {
			b.rt.track(b.target, LengthKey)
		} else {
			b.rt.track(b.target, IterateKey)
		}
	}
	return b.target.rawKeys()
}

func (b *base) DeleteKey(k Key) bool {
	if b.readonly() {
		b.warnReadonly("delete", k)
		return true
	}
	had := b.target.rawHas(k)
	ok := b.target.rawDelete(k)
	if had && ok && !b.shallow() {
		b.rt.trigger(b.target, k, OpDelete, nil)
	}
	return ok
}

// track records k unless the wrapper is read-only.
func (b *base) track(k Key) {
	if !b.readonly() {
		b.rt.track(b.target, k)
	}
}

// trigger notifies dependents unless the wrapper is shallow.
func (b *base) trigger(k Key, op OpKind, newValue any) {
	if !b.shallow() {
		b.rt.trigger(b.target, k, op, newValue)
	}
}

// wrapValue wraps composite results of deep wrappers with the same
// read-only-ness as the parent.
func (b *base) wrapValue(v any) any {
	if b.shallow() {
		return v
	}
	if t, ok := v.(Target); ok {
		return b.rt.proxyFor(t, b.flags&FlagReadonly)
	}
	return v
}

func (b *base) warnReadonly(op string, k Key) {
	b.rt.diagnose(slog.LevelWarn, "R001",
		"op", op,
		"key", k.String(),
		"target", targetKind(b.target),
	)
}

// =============================================================================
// Entry points
// =============================================================================

// Reactive returns the deep reactive wrapper of v. Composites nested in v are
// wrapped lazily when read. Non-composite values are returned unchanged.
func (rt *Runtime) Reactive(v any) any {
	return rt.wrapOrPass(v, 0)
}

// ShallowReactive returns a wrapper that tracks top-level reads only. Nested
// composites are returned raw and writes through it do not trigger.
func (rt *Runtime) ShallowReactive(v any) any {
	return rt.wrapOrPass(v, FlagShallow)
}

// Readonly returns a deep read-only wrapper of v.
func (rt *Runtime) Readonly(v any) any {
	return rt.wrapOrPass(v, FlagReadonly)
}

// ShallowReadonly returns a read-only wrapper whose nested composites are
// returned raw.
func (rt *Runtime) ShallowReadonly(v any) any {
	return rt.wrapOrPass(v, FlagReadonly|FlagShallow)
}

// Wrap returns the wrapper of v with the given flavour, or ErrNotComposite.
//
// Wrapping a read-only wrapper with a mutable flavour returns it unchanged;
// any other wrapper is re-wrapped from its raw target.
func (rt *Runtime) Wrap(v any, flags Flags) (Proxy, error) {
	switch t := v.(type) {
	case Proxy:
		if t.Flags() == flags {
			return t, nil
		}
		if t.Flags()&FlagReadonly != 0 && flags&FlagReadonly == 0 {
			return t, nil
		}
		return rt.proxyFor(t.Raw(), flags), nil
	case Target:
		return rt.proxyFor(t, flags), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotComposite, v)
	}
}

func (rt *Runtime) wrapOrPass(v any, flags Flags) any {
	p, err := rt.Wrap(v, flags)
	if err != nil {
		rt.diagnose(slog.LevelDebug, "R003", "type", fmt.Sprintf("%T", v))
		return v
	}
	return p
}

// proxyFor returns the cached wrapper of t for flags, creating it on first use.
func (rt *Runtime) proxyFor(t Target, flags Flags) Proxy {
	if p, ok := rt.proxies[flags][t]; ok {
		return p
	}
	b := base{rt: rt, target: t, flags: flags}
	var p Proxy
	switch t.(type) {
	case *Record:
		p = &ReactiveRecord{base: b}
	case *List:
		p = &ReactiveList{base: b}
	case *Map:
		p = &ReactiveMap{base: b}
	case *Set:
		p = &ReactiveSet{base: b}
	default:
		p = &b
	}
	rt.proxies[flags][t] = p
	return p
}

// Record returns the deep reactive wrapper of r.
func (rt *Runtime) Record(r *Record) *ReactiveRecord {
	return rt.proxyFor(r, 0).(*ReactiveRecord)
}

// List returns the deep reactive wrapper of l.
func (rt *Runtime) List(l *List) *ReactiveList {
	return rt.proxyFor(l, 0).(*ReactiveList)
}

// Map returns the deep reactive wrapper of m.
func (rt *Runtime) Map(m *Map) *ReactiveMap {
	return rt.proxyFor(m, 0).(*ReactiveMap)
}

// Set returns the deep reactive wrapper of s.
func (rt *Runtime) Set(s *Set) *ReactiveSet {
	return rt.proxyFor(s, 0).(*ReactiveSet)
}

// =============================================================================
// Inspection helpers
// =============================================================================

// IsProxy reports whether v is a wrapper of any flavour.
func IsProxy(v any) bool {
	_, ok := v.(Proxy)
	return ok
}

// IsReactive reports whether v is a mutable wrapper.
func IsReactive(v any) bool {
	p, ok := v.(Proxy)
	return ok && p.Flags()&FlagReadonly == 0
}

// IsReadonly reports whether v is a read-only wrapper.
func IsReadonly(v any) bool {
	p, ok := v.(Proxy)
	return ok && p.Flags()&FlagReadonly != 0
}

// IsShallow reports whether v is a shallow wrapper.
func IsShallow(v any) bool {
	p, ok := v.(Proxy)
	return ok && p.Flags()&FlagShallow != 0
}

// ToRaw returns the raw target behind a wrapper, or v itself.
func ToRaw(v any) any {
	if p, ok := v.(Proxy); ok {
		return p.Read(RawKey)
	}
	return v
}
