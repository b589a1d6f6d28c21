package reactive

import (
	"fmt"
	"log/slog"
)

// FlushMode selects when a watch callback runs relative to the write that
// triggered it.
type FlushMode string

const (
	// FlushPre runs the callback synchronously. It is accepted for hosts with a
	// pre-render hook; without one it behaves like FlushSync.
	FlushPre FlushMode = "pre"
	// FlushPost defers the callback by one microtask. Each trigger queues its
	// own callback, so the invalidate of one runs before the next starts.
	FlushPost FlushMode = "post"
	// FlushSync runs the callback synchronously inside the write.
	FlushSync FlushMode = "sync"
)

// WatchOptions are the settings of a watcher.
type WatchOptions struct {
	// Immediate invokes the callback once on creation with a zero old value.
	Immediate bool
	// Flush selects callback timing. Defaults to FlushPre.
	Flush FlushMode
	// Name labels the watcher's effect in logs and metrics.
	Name string
}

// WatchOption configures a watcher.
type WatchOption func(*WatchOptions)

// Immediate runs the callback once when the watcher is created.
func Immediate() WatchOption {
	return func(o *WatchOptions) {
		o.Immediate = true
	}
}

// Flush sets the callback timing.
func Flush(mode FlushMode) WatchOption {
	return func(o *WatchOptions) {
		o.Flush = mode
	}
}

// WatchName labels the watcher.
func WatchName(name string) WatchOption {
	return func(o *WatchOptions) {
		o.Name = name
	}
}

// OnInvalidate registers a function to run before the next callback
// invocation (or when the watcher stops). Only the latest registration is kept.
type OnInvalidate func(fn func())

// WatchCallback receives the new and previous value of a watched source.
type WatchCallback[T any] func(newValue, oldValue T, onInvalidate OnInvalidate)

// StopHandle stops a watcher. Calling it more than once is harmless.
type StopHandle func()

// Watch observes getter and calls cb whenever a dependency of getter changes.
//
// Before each callback the invalidate function registered by the previous
// callback (if any) runs, so work started for a superseded value can be
// cancelled:
//
//	reactive.Watch(rt, func() string { return query.Value() },
//	    func(q, _ string, onInvalidate reactive.OnInvalidate) {
//	        ctx, cancel := context.WithCancel(context.Background())
//	        onInvalidate(cancel)
//	        go search(ctx, q)
//	    })
func Watch[T any](rt *Runtime, getter func() T, cb WatchCallback[T], opts ...WatchOption) StopHandle {
	o := WatchOptions{Flush: FlushPre, Name: "watch"}
	for _, opt := range opts {
		opt(&o)
	}
	switch o.Flush {
	case FlushPre, FlushPost, FlushSync:
	default:
		rt.diagnose(slog.LevelWarn, "R004", "flush", string(o.Flush), "watch", o.Name)
		o.Flush = FlushSync
	}

	var (
		oldValue   T
		invalidate func()
		effect     *Effect
	)
	onInvalidate := func(fn func()) {
		invalidate = fn
	}
	runInvalidate := func() {
		if invalidate != nil {
			fn := invalidate
			invalidate = nil
			fn()
		}
	}
	schedule := func() {
		// A FlushPost job may outlive its watcher.
		if !effect.Active() {
			return
		}
		runInvalidate()
		newValue, _ := effect.Run().(T)
		cb(newValue, oldValue, onInvalidate)
		oldValue = newValue
	}

	effect = rt.WatchEffect(
		func() any { return getter() },
		Lazy(),
		EffectName(o.Name),
		WithScheduler(func(*Effect) {
			if o.Flush == FlushPost {
				rt.QueueMicrotask(schedule)
				return
			}
			schedule()
		}),
	)

	if o.Immediate {
		schedule()
	} else {
		oldValue, _ = effect.Run().(T)
	}

	return func() {
		effect.Stop()
		runInvalidate()
	}
}

// WatchSource watches an arbitrary source:
//   - func() any is used as the getter;
//   - a Ref, PropertyRef or Computed is watched through its value;
//   - a wrapper or raw container is traversed deeply, so any nested change
//     fires the callback (with the source itself as both values).
//
// Any other source is logged as invalid and never fires.
func (rt *Runtime) WatchSource(source any, cb WatchCallback[any], opts ...WatchOption) StopHandle {
	var getter func() any
	switch s := source.(type) {
	case func() any:
		getter = s
	case cell:
		getter = s.anyValue
	case Proxy:
		getter = func() any {
			rt.traverse(s, make(map[Target]struct{}))
			return s
		}
	case Target:
		p := rt.proxyFor(s, 0)
		getter = func() any {
			rt.traverse(p, make(map[Target]struct{}))
			return p
		}
	default:
		rt.diagnose(slog.LevelWarn, "R005", "type", fmt.Sprintf("%T", source))
		getter = func() any { return source }
	}
	return Watch(rt, getter, cb, opts...)
}

// traverse reads every value reachable from v so the active effect depends on
// the whole structure. seen guards against cycles.
func (rt *Runtime) traverse(v any, seen map[Target]struct{}) {
	if c, ok := v.(cell); ok {
		rt.traverse(c.anyValue(), seen)
		return
	}
	p, ok := v.(Proxy)
	if !ok {
		return
	}
	raw := p.Raw()
	if _, ok := seen[raw]; ok {
		return
	}
	seen[raw] = struct{}{}

	switch w := p.(type) {
	case *ReactiveRecord:
		for _, name := range w.Keys() {
			rt.traverse(w.Get(name), seen)
		}
	case *ReactiveList:
		for _, elem := range w.Values() {
			rt.traverse(elem, seen)
		}
	case *ReactiveMap:
		w.ForEach(func(val, key any) {
			rt.traverse(key, seen)
			rt.traverse(val, seen)
		})
	case *ReactiveSet:
		w.ForEach(func(val any) {
			rt.traverse(val, seen)
		})
	}
}
