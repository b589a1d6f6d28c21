package reactive

// ReactiveRecord is the wrapper of a Record.
type ReactiveRecord struct {
	base
}

// Get returns the field value, tracking it. Nested composites come back
// wrapped unless the wrapper is shallow.
func (r *ReactiveRecord) Get(name string) any {
	return r.Read(Prop(name))
}

// Set stores a field. Adding a new field also notifies key enumerations.
func (r *ReactiveRecord) Set(name string, v any) bool {
	return r.Write(Prop(name), v)
}

// Has reports whether the field exists, tracking its existence.
func (r *ReactiveRecord) Has(name string) bool {
	return r.HasKey(Prop(name))
}

// Delete removes a field.
func (r *ReactiveRecord) Delete(name string) bool {
	return r.DeleteKey(Prop(name))
}

// Keys returns the field names, tracking the key set.
func (r *ReactiveRecord) Keys() []string {
	keys := r.Enumerate()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return names
}

// Len returns the number of fields, tracking the key set.
func (r *ReactiveRecord) Len() int {
	return len(r.Enumerate())
}

// GetRecord returns a nested record field, or nil if the field is not a record.
func (r *ReactiveRecord) GetRecord(name string) *ReactiveRecord {
	rec, _ := r.Get(name).(*ReactiveRecord)
	return rec
}

// GetList returns a nested list field, or nil if the field is not a list.
func (r *ReactiveRecord) GetList(name string) *ReactiveList {
	l, _ := r.Get(name).(*ReactiveList)
	return l
}

// GetMap returns a nested map field, or nil if the field is not a map.
func (r *ReactiveRecord) GetMap(name string) *ReactiveMap {
	m, _ := r.Get(name).(*ReactiveMap)
	return m
}

// GetSet returns a nested set field, or nil if the field is not a set.
func (r *ReactiveRecord) GetSet(name string) *ReactiveSet {
	s, _ := r.Get(name).(*ReactiveSet)
	return s
}
