// Package instrument provides production-grade observers for the reactive
// runtime.
//
// This package includes:
//   - Prometheus metrics for effect runs, triggers and job queue flushes
//   - OpenTelemetry spans for effect runs and flushes
//
// Both implement reactive.Observer and are installed with
// reactive.WithObserver. Use reactive.Observers to install both.
//
// # Prometheus Metrics
//
// The metrics observer collects:
//   - reactor_effect_runs_total: Effect runs by name and status
//   - reactor_effect_duration_seconds: Effect run duration histogram
//   - reactor_triggers_total: Triggers by target kind and operation
//   - reactor_trigger_effects_total: Effects reached by triggers, run or scheduled
//   - reactor_flushes_total: Job queue flushes by status
//   - reactor_flush_jobs: Jobs run per flush
//   - reactor_flush_dropped_total: Jobs dropped by the recursion limit
//
//	m := instrument.NewMetrics(instrument.WithNamespace("myapp"))
//	rt := reactive.NewRuntime(reactive.WithObserver(m))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// The tracer observer records one span per effect run and per flush. Events
// carry no context, so spans are parented to the context given with
// WithContext.
//
//	tr := instrument.NewTracer(instrument.WithTracerName("my-app"))
//	rt := reactive.NewRuntime(reactive.WithObserver(reactive.Observers(m, tr)))
//
// The tracer uses the global OpenTelemetry tracer provider unless WithTracer
// is given.
package instrument
