// Package reactivetest provides testing helpers for code built on the
// reactive runtime.
//
// It reduces boilerplate when testing effects by providing a fluent runtime
// builder, a log capture for diagnostics and run-counting probes.
//
// # Quick Start
//
//	func TestCart_Total(t *testing.T) {
//	    rt := reactivetest.NewRuntime(t).Build()
//	    cart := rt.Record(reactive.NewRecord("qty", 1))
//
//	    p := reactivetest.Probe(rt, func() { cart.Get("qty") })
//	    cart.Set("qty", 2)
//	    reactivetest.ExpectRuns(t, p, 2)
//	}
//
// # Fluent Runtime Builder
//
//	b := reactivetest.NewRuntime(t).
//	    WithRecursionLimit(10).
//	    WithRecorder()
//	rt := b.Build()
//
//	// ... exercise rt ...
//	reactivetest.ExpectLogged(t, b.Logs(), "R002")
//	if b.Recorder().Flushes() != 1 { ... }
//
// Diagnostics logged by the runtime are kept by the builder's LogCapture and
// also written to t.Log, so they show up next to a failing test.
package reactivetest
