package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Default tracer name for reactor runtimes.
const defaultTracerName = "reactor"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Context parents every span. Default: context.Background().
	Context context.Context

	// Triggers records a span per trigger. Disabled by default: triggers
	// are far more frequent than runs.
	Triggers bool

	// Filter determines which effect runs to trace by effect name.
	// If nil, all runs are traced.
	Filter func(name string) bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(t trace.Tracer) TracerOption {
	return func(c *TracerConfig) {
		c.Tracer = t
	}
}

// WithContext sets the parent context of every span.
func WithContext(ctx context.Context) TracerOption {
	return func(c *TracerConfig) {
		c.Context = ctx
	}
}

// WithTriggerSpans enables or disables spans for triggers.
func WithTriggerSpans(enabled bool) TracerOption {
	return func(c *TracerConfig) {
		c.Triggers = enabled
	}
}

// WithEffectFilter sets a filter on effect names.
func WithEffectFilter(filter func(name string) bool) TracerOption {
	return func(c *TracerConfig) {
		c.Filter = filter
	}
}

// Tracer is a reactive.Observer that records OpenTelemetry spans.
type Tracer struct {
	config TracerConfig
}

// NewTracer creates the tracing observer.
//
// Example:
//
//	tr := instrument.NewTracer(
//	    instrument.WithTracerName("checkout"),
//	    instrument.WithEffectFilter(func(name string) bool { return name != "computed" }),
//	)
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Tracer{config: config}
}

// EffectRan records a span covering the run.
func (t *Tracer) EffectRan(r reactive.EffectRun) {
	if t.config.Filter != nil && !t.config.Filter(r.Name) {
		return
	}
	end := time.Now()
	_, span := t.config.Tracer.Start(t.config.Context, "reactor.effect",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-r.Duration)),
		trace.WithAttributes(
			attribute.Int64("reactor.effect.id", int64(r.ID)),
			attribute.String("reactor.effect.name", effectLabel(r.Name)),
			attribute.Int("reactor.effect.deps", r.Deps),
		),
	)
	if r.Panicked {
		span.SetStatus(codes.Error, "effect panicked")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

// Triggered records a span per trigger when enabled.
func (t *Tracer) Triggered(info reactive.TriggerInfo) {
	if !t.config.Triggers {
		return
	}
	_, span := t.config.Tracer.Start(t.config.Context, "reactor.trigger",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("reactor.trigger.target", info.Target),
			attribute.String("reactor.trigger.key", info.Key.String()),
			attribute.String("reactor.trigger.op", info.Op.String()),
			attribute.Int("reactor.trigger.ran", info.Ran),
			attribute.Int("reactor.trigger.scheduled", info.Scheduled),
		),
	)
	span.End()
}

// Flushed records a span covering the flush.
func (t *Tracer) Flushed(f reactive.FlushInfo) {
	end := time.Now()
	_, span := t.config.Tracer.Start(t.config.Context, "reactor.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-f.Duration)),
		trace.WithAttributes(
			attribute.Int("reactor.flush.jobs", f.Jobs),
			attribute.Int("reactor.flush.dropped", f.Dropped),
		),
	)
	switch {
	case f.Panicked:
		span.SetStatus(codes.Error, "job panicked")
	case f.Dropped > 0:
		span.SetStatus(codes.Error, "recursion limit exceeded")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
