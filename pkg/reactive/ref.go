package reactive

// cell is implemented by single-value reactive holders: Ref, PropertyRef and
// Computed. Reading anyValue tracks like reading the holder.
type cell interface {
	anyValue() any
}

// Ref is a single reactive value. Reading Value makes the active effect depend
// on the ref; Set triggers dependents when the value changed.
type Ref[T any] struct {
	rt    *Runtime
	value T
}

// NewRef creates a ref holding v.
func NewRef[T any](rt *Runtime, v T) *Ref[T] {
	return &Ref[T]{rt: rt, value: v}
}

// Value returns the current value and tracks it.
func (r *Ref[T]) Value() T {
	r.rt.track(r, ValueKey)
	return r.value
}

// Peek returns the current value without tracking.
func (r *Ref[T]) Peek() T {
	return r.value
}

// Set stores v and triggers dependents if it differs from the current value.
func (r *Ref[T]) Set(v T) {
	if !hasChanged(any(r.value), any(v)) {
		return
	}
	r.value = v
	r.rt.trigger(r, ValueKey, OpSet, v)
}

// Update replaces the value with fn(current).
func (r *Ref[T]) Update(fn func(T) T) {
	r.Set(fn(r.value))
}

func (r *Ref[T]) anyValue() any {
	return r.Value()
}

// PropertyRef is a ref bound to one field of a reactive record. Reads and
// writes go through the record, so they track and trigger like the record.
type PropertyRef struct {
	record *ReactiveRecord
	name   string
}

// ToRef returns a ref over record's field name.
func ToRef(record *ReactiveRecord, name string) *PropertyRef {
	return &PropertyRef{record: record, name: name}
}

// ToRefs returns a PropertyRef for every current field of record. The field
// list is read untracked.
func ToRefs(record *ReactiveRecord) map[string]*PropertyRef {
	raw := ToRaw(record).(*Record)
	refs := make(map[string]*PropertyRef, raw.Len())
	for _, name := range raw.Keys() {
		refs[name] = ToRef(record, name)
	}
	return refs
}

// Name returns the bound field name.
func (p *PropertyRef) Name() string {
	return p.name
}

// Value reads the field.
func (p *PropertyRef) Value() any {
	return p.record.Get(p.name)
}

// Set writes the field.
func (p *PropertyRef) Set(v any) {
	p.record.Set(p.name, v)
}

func (p *PropertyRef) anyValue() any {
	return p.Value()
}

// IsRef reports whether v is a Ref, PropertyRef or Computed.
func IsRef(v any) bool {
	_, ok := v.(cell)
	return ok
}

// Unref returns the value of a ref-like v, or v itself.
func Unref(v any) any {
	if c, ok := v.(cell); ok {
		return c.anyValue()
	}
	return v
}
