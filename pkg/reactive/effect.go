package reactive

import (
	"slices"
	"time"
)

// Scheduler decides when a triggered effect actually runs. It receives the
// effect and is expected to call Run on it, now or later. It may be called any
// number of times per turn.
type Scheduler func(e *Effect)

// EffectOptions are the settings of an Effect.
type EffectOptions struct {
	// Lazy skips the initial run on creation.
	Lazy bool

	// Scheduler, when set, receives the effect instead of it running
	// synchronously at trigger time.
	Scheduler Scheduler

	// OnStop runs once when the effect is stopped.
	OnStop func()

	// Name labels the effect in logs and metrics.
	Name string
}

// EffectOption is an option for configuring an Effect.
type EffectOption interface {
	applyEffect(o *EffectOptions)
}

type effectOptionFunc func(*EffectOptions)

func (f effectOptionFunc) applyEffect(o *EffectOptions) { f(o) }

// Lazy creates the effect without running it. The first Run establishes its
// dependencies.
func Lazy() EffectOption {
	return effectOptionFunc(func(o *EffectOptions) {
		o.Lazy = true
	})
}

// WithScheduler routes triggered runs through s.
func WithScheduler(s Scheduler) EffectOption {
	return effectOptionFunc(func(o *EffectOptions) {
		o.Scheduler = s
	})
}

// OnStop registers fn to run when the effect is stopped.
func OnStop(fn func()) EffectOption {
	return effectOptionFunc(func(o *EffectOptions) {
		o.OnStop = fn
	})
}

// EffectName labels the effect for logs and metrics.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(o *EffectOptions) {
		o.Name = name
	})
}

// Effect is a re-runnable tracked computation.
type Effect struct {
	id uint64
	rt *Runtime

	fn   func() any
	opts EffectOptions

	// deps are back-references to every Dep this effect is subscribed to.
	deps []*Dep

	active bool

	// computed marks the effect behind a Computed. Those are dispatched
	// before plain effects so readers never see a cache not yet marked dirty.
	computed bool

	// last is the result of the most recent completed run.
	last any
}

// WatchEffect creates an effect over fn and runs it immediately unless Lazy is
// given. Every reactive read made by fn becomes a dependency; the effect re-runs
// (or is scheduled) whenever one of them changes.
//
// Example:
//
//	rt.WatchEffect(func() any {
//	    fmt.Println("a =", state.Get("a"))
//	    return nil
//	})
func (rt *Runtime) WatchEffect(fn func() any, opts ...EffectOption) *Effect {
	e := &Effect{
		id:     nextID(),
		rt:     rt,
		fn:     fn,
		active: true,
	}
	for _, opt := range opts {
		opt.applyEffect(&e.opts)
	}
	if !e.opts.Lazy {
		e.Run()
	}
	return e
}

// ID returns the unique identifier of this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the effect's label.
func (e *Effect) Name() string {
	return e.opts.Name
}

// Options returns the effect's settings.
func (e *Effect) Options() EffectOptions {
	return e.opts
}

// Deps returns the Deps the effect is currently subscribed to.
func (e *Effect) Deps() []*Dep {
	return slices.Clone(e.deps)
}

// Active reports whether the effect has not been stopped.
func (e *Effect) Active() bool {
	return e.active
}

// Run executes the effect body and returns its result.
//
// Before the body runs, the effect is removed from every Dep it belongs to,
// so only the reads of this run count as dependencies. A stopped effect runs
// its body untracked. An effect that is already running returns its previous
// result instead of re-entering.
func (e *Effect) Run() any {
	if !e.active {
		var out any
		e.rt.Untracked(func() { out = e.fn() })
		return out
	}
	rt := e.rt
	if slices.Contains(rt.effectStack, e) {
		return e.last
	}

	rt.cleanup(e)

	var start time.Time
	if rt.observer != nil {
		start = time.Now()
	}

	rt.pushEffect(e)
	panicked := true
	defer func() {
		rt.popEffect()
		if rt.observer != nil {
			rt.observer.EffectRan(EffectRun{
				ID:       e.id,
				Name:     e.opts.Name,
				Duration: time.Since(start),
				Deps:     len(e.deps),
				Panicked: panicked,
			})
		}
	}()

	e.last = e.fn()
	panicked = false
	return e.last
}

// Stop permanently unsubscribes the effect. Later triggers never reach it.
func (e *Effect) Stop() {
	if !e.active {
		return
	}
	e.rt.cleanup(e)
	e.active = false
	if e.opts.OnStop != nil {
		e.opts.OnStop()
	}
}

// removeDep drops one back-reference without touching the Dep itself.
func (e *Effect) removeDep(d *Dep) {
	e.deps = slices.DeleteFunc(e.deps, func(x *Dep) bool { return x == d })
}

// pushEffect makes e the active effect with tracking enabled.
func (rt *Runtime) pushEffect(e *Effect) {
	rt.effectStack = append(rt.effectStack, e)
	rt.activeEffect = e
	rt.trackStack = append(rt.trackStack, rt.shouldTrack)
	rt.shouldTrack = true
}

// popEffect restores whatever effect (possibly none) was active before.
func (rt *Runtime) popEffect() {
	rt.effectStack = rt.effectStack[:len(rt.effectStack)-1]
	if n := len(rt.effectStack); n > 0 {
		rt.activeEffect = rt.effectStack[n-1]
	} else {
		rt.activeEffect = nil
	}
	rt.resetTracking()
}

// ActiveEffect returns the effect currently tracking reads, or nil.
func (rt *Runtime) ActiveEffect() *Effect {
	return rt.activeEffect
}

// PauseTracking stops recording dependencies until the matching ResetTracking.
func (rt *Runtime) PauseTracking() {
	rt.trackStack = append(rt.trackStack, rt.shouldTrack)
	rt.shouldTrack = false
}

// ResetTracking restores the tracking state saved by the last PauseTracking.
func (rt *Runtime) ResetTracking() {
	rt.resetTracking()
}

func (rt *Runtime) resetTracking() {
	n := len(rt.trackStack)
	if n == 0 {
		rt.shouldTrack = true
		return
	}
	rt.shouldTrack = rt.trackStack[n-1]
	rt.trackStack = rt.trackStack[:n-1]
}

// Untracked runs fn without recording any dependency for the active effect.
//
// Example:
//
//	rt.Untracked(func() {
//	    // reading here won't subscribe the surrounding effect
//	    log.Println(state.Get("debug"))
//	})
func (rt *Runtime) Untracked(fn func()) {
	rt.PauseTracking()
	defer rt.ResetTracking()
	fn()
}

// cleanup removes e from every Dep it belongs to and clears its list.
func (rt *Runtime) cleanup(e *Effect) {
	for _, d := range e.deps {
		delete(d.subs, e)
	}
	clear(e.deps)
	e.deps = e.deps[:0]
}

// track records that the active effect read (target, key).
func (rt *Runtime) track(target any, key Key) {
	e := rt.activeEffect
	if e == nil || !rt.shouldTrack {
		return
	}
	deps := rt.store[target]
	if deps == nil {
		deps = make(map[Key]*Dep)
		rt.store[target] = deps
	}
	d := deps[key]
	if d == nil {
		d = newDep(key)
		deps[key] = d
	}
	if _, ok := d.subs[e]; ok {
		return
	}
	d.subs[e] = struct{}{}
	e.deps = append(e.deps, d)
}

// trigger runs or schedules every effect that depends on (target, key).
// newValue is the new length when key is LengthKey on a List.
func (rt *Runtime) trigger(target any, key Key, op OpKind, newValue any) {
	deps := rt.store[target]
	if deps == nil {
		return
	}

	collected := make(map[*Effect]struct{})
	add := func(d *Dep) {
		if d == nil {
			return
		}
		for e := range d.subs {
			// An effect never re-enters itself from its own write unless a
			// scheduler decides when it runs.
			if e == rt.activeEffect && e.opts.Scheduler == nil {
				continue
			}
			collected[e] = struct{}{}
		}
	}

	_, isList := target.(*List)
	_, isMap := target.(*Map)

	switch {
	case op == OpClear:
		for _, d := range deps {
			add(d)
		}
	case isList && key.Kind == KeyLength:
		n, _ := newValue.(int)
		for k, d := range deps {
			if k.Kind == KeyLength || (k.Kind == KeyIndex && k.Index >= n) {
				add(d)
			}
		}
	default:
		add(deps[key])
		switch op {
		case OpAdd:
			add(deps[IterateKey])
			if isList {
				add(deps[LengthKey])
			}
			if isMap {
				add(deps[MapKeysKey])
			}
		case OpDelete:
			add(deps[IterateKey])
			if isMap {
				add(deps[MapKeysKey])
			}
		case OpSet:
			if isMap {
				add(deps[IterateKey])
			}
		}
	}

	effects := make([]*Effect, 0, len(collected))
	for e := range collected {
		effects = append(effects, e)
	}
	slices.SortFunc(effects, func(a, b *Effect) int {
		switch {
		case a.computed != b.computed:
			if a.computed {
				return -1
			}
			return 1
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	info := TriggerInfo{Target: targetKind(target), Key: key, Op: op}
	for _, e := range effects {
		// An earlier effect in this batch may have stopped this one.
		if !e.active {
			continue
		}
		if e.opts.Scheduler != nil {
			info.Scheduled++
			e.opts.Scheduler(e)
		} else {
			info.Ran++
			e.Run()
		}
	}
	if rt.observer != nil {
		rt.observer.Triggered(info)
	}
}
