package reactive

// Dep is the set of effects subscribed to one (target, key) pair.
type Dep struct {
	key  Key
	subs map[*Effect]struct{}
}

func newDep(key Key) *Dep {
	return &Dep{key: key, subs: make(map[*Effect]struct{})}
}

// Key returns the key this Dep belongs to.
func (d *Dep) Key() Key {
	return d.key
}

// Len returns the number of subscribed effects.
func (d *Dep) Len() int {
	return len(d.subs)
}

// Has reports whether e is subscribed.
func (d *Dep) Has(e *Effect) bool {
	_, ok := d.subs[e]
	return ok
}
