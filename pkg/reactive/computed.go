package reactive

// Computed is a cached derived value.
//
// The getter runs lazily: on the first Value call, and on the first Value call
// after any of its dependencies changed. A dependency change only marks the
// cache dirty and notifies readers of Value; it never recomputes by itself.
// Any number of reads between two changes cost one computation.
type Computed[T any] struct {
	rt     *Runtime
	effect *Effect

	value T
	dirty bool
}

// NewComputed creates a computed value over getter.
//
// Example:
//
//	full := reactive.NewComputed(rt, func() string {
//	    return user.Get("first").(string) + " " + user.Get("last").(string)
//	})
//	full.Value()
func NewComputed[T any](rt *Runtime, getter func() T) *Computed[T] {
	c := &Computed[T]{rt: rt, dirty: true}
	c.effect = rt.WatchEffect(
		func() any { return getter() },
		Lazy(),
		EffectName("computed"),
		WithScheduler(func(*Effect) {
			if !c.dirty {
				c.dirty = true
				rt.trigger(c, ValueKey, OpSet, nil)
			}
		}),
	)
	c.effect.computed = true
	return c
}

// Value returns the cached value, recomputing it first if it is dirty, and
// makes the active effect depend on this computed.
func (c *Computed[T]) Value() T {
	if c.dirty {
		c.value, _ = c.effect.Run().(T)
		c.dirty = false
	}
	c.rt.track(c, ValueKey)
	return c.value
}

// Peek returns the value like Value but without tracking it.
func (c *Computed[T]) Peek() T {
	var v T
	c.rt.Untracked(func() { v = c.Value() })
	return v
}

// Dirty reports whether the next Value call will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Effect returns the internal effect running the getter.
func (c *Computed[T]) Effect() *Effect {
	return c.effect
}

// Stop freezes the computed at its current value.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
}

func (c *Computed[T]) anyValue() any {
	return c.Value()
}
