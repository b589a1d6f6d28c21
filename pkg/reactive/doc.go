// Package reactive provides the fine-grained reactivity engine for reactor.
//
// Dependencies are discovered at runtime: while an effect runs, every read of
// a reactive wrapper records a (target, key) dependency, and every write to a
// wrapper re-runs (or schedules) exactly the effects that read that key.
// Dependencies are re-collected on every run, so branches that are no longer
// taken stop triggering the effect.
//
// # Runtime
//
// All state lives in an explicit Runtime: the dependency store, the wrapper
// caches, the active-effect stack and the microtask queue. A Runtime is not
// safe for concurrent use; create one per goroutine (or per test).
//
//	rt := reactive.NewRuntime()
//
// # Wrappers
//
// Application data lives in raw containers (Record, List, Map, Set). Wrapping
// a container returns an identity-stable wrapper that intercepts reads and
// writes:
//
//	state := rt.Record(reactive.NewRecord("count", 0))
//	rt.WatchEffect(func() any {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//	state.Set("count", 1) // prints "count is 1"
//
// Four flavours exist: Reactive (deep), ShallowReactive, Readonly and
// ShallowReadonly. Read-only wrappers never track and log a warning instead of
// mutating.
//
// # Derived values
//
// Computed caches a getter and recomputes lazily after a dependency changes:
//
//	total := reactive.NewComputed(rt, func() int {
//	    return state.Get("a").(int) + state.Get("b").(int)
//	})
//	total.Value()
//
// Watch runs a callback with the new and old value of a source, optionally
// deferred to the next microtask turn (FlushPost).
//
// # Scheduling
//
// Without a scheduler an effect re-runs synchronously inside the write that
// triggered it. A JobQueue batches effects: repeated triggers within one turn
// collapse into a single run when the runtime drains its microtasks with Tick
// or Turn.
//
//	q := rt.NewJobQueue()
//	rt.WatchEffect(render, reactive.WithScheduler(q.Scheduler()))
//	rt.Turn(func() {
//	    state.Set("a", 1)
//	    state.Set("b", 2)
//	}) // render runs once
package reactive
