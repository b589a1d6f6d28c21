package reactivetest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Builder allows fluent construction of test runtimes.
type Builder struct {
	logs      *LogCapture
	recorder  *Recorder
	observers []reactive.Observer
	opts      []reactive.Option
}

// NewRuntime creates a new runtime builder. Logs go to tb.Log when tb is not
// nil.
//
// Example:
//
//	rt := reactivetest.NewRuntime(t).WithRecursionLimit(5).Build()
func NewRuntime(tb testing.TB) *Builder {
	return &Builder{logs: NewLogCapture(tb)}
}

// WithRecursionLimit sets the job queue recursion limit.
func (b *Builder) WithRecursionLimit(n int) *Builder {
	b.opts = append(b.opts, reactive.WithRecursionLimit(n))
	return b
}

// WithObserver adds an instrumentation observer.
func (b *Builder) WithObserver(o reactive.Observer) *Builder {
	b.observers = append(b.observers, o)
	return b
}

// WithRecorder installs a Recorder, available through Recorder.
func (b *Builder) WithRecorder() *Builder {
	if b.recorder == nil {
		b.recorder = &Recorder{}
		b.observers = append(b.observers, b.recorder)
	}
	return b
}

// Build returns the configured runtime.
func (b *Builder) Build() *reactive.Runtime {
	opts := append([]reactive.Option{reactive.WithLogger(slog.New(b.logs))}, b.opts...)
	if len(b.observers) > 0 {
		opts = append(opts, reactive.WithObserver(reactive.Observers(b.observers...)))
	}
	return reactive.NewRuntime(opts...)
}

// Logs returns the capture receiving the runtime's diagnostics.
func (b *Builder) Logs() *LogCapture {
	return b.logs
}

// Recorder returns the recorder installed by WithRecorder, or nil.
func (b *Builder) Recorder() *Recorder {
	return b.recorder
}

// =============================================================================
// LogCapture
// =============================================================================

// Entry is one captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	// Code is the diagnostic code attribute, if any.
	Code  string
	Attrs map[string]any
}

type logStore struct {
	mu      sync.Mutex
	entries []Entry
}

// LogCapture is a slog.Handler that keeps every record it handles.
type LogCapture struct {
	tb    testing.TB
	store *logStore
	attrs []slog.Attr
	group string
}

// NewLogCapture creates an empty capture. Records are also written to tb.Log
// when tb is not nil.
func NewLogCapture(tb testing.TB) *LogCapture {
	return &LogCapture{tb: tb, store: &logStore{}}
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]any, len(c.attrs)+r.NumAttrs()),
	}
	add := func(a slog.Attr) {
		e.Attrs[a.Key] = a.Value.Any()
		// Keys arrive qualified by any open group.
		if a.Key == "code" || strings.HasSuffix(a.Key, ".code") {
			e.Code = a.Value.String()
		}
	}
	for _, a := range c.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(c.qualify(a))
		return true
	})

	c.store.mu.Lock()
	c.store.entries = append(c.store.entries, e)
	c.store.mu.Unlock()

	if c.tb != nil {
		c.tb.Helper()
		c.tb.Log(formatEntry(e))
	}
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append([]slog.Attr(nil), c.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, c.qualify(a))
	}
	return &next
}

func (c *LogCapture) WithGroup(name string) slog.Handler {
	next := *c
	if c.group != "" {
		name = c.group + "." + name
	}
	next.group = name
	return &next
}

// qualify prefixes the attribute key with the open group.
func (c *LogCapture) qualify(a slog.Attr) slog.Attr {
	if c.group != "" {
		a.Key = c.group + "." + a.Key
	}
	return a
}

// Entries returns a copy of every captured record.
func (c *LogCapture) Entries() []Entry {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return append([]Entry(nil), c.store.entries...)
}

// Codes returns the diagnostic codes in logging order.
func (c *LogCapture) Codes() []string {
	var codes []string
	for _, e := range c.Entries() {
		if e.Code != "" {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// Count returns how many records carry code.
func (c *LogCapture) Count(code string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Reset drops every captured record.
func (c *LogCapture) Reset() {
	c.store.mu.Lock()
	c.store.entries = nil
	c.store.mu.Unlock()
}

func formatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString(e.Level.String())
	b.WriteString(" ")
	b.WriteString(e.Message)
	for k, v := range e.Attrs {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	return b.String()
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder is an Observer that keeps every event.
type Recorder struct {
	mu       sync.Mutex
	runs     []reactive.EffectRun
	triggers []reactive.TriggerInfo
	flushes  []reactive.FlushInfo
}

func (r *Recorder) EffectRan(run reactive.EffectRun) {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
}

func (r *Recorder) Triggered(t reactive.TriggerInfo) {
	r.mu.Lock()
	r.triggers = append(r.triggers, t)
	r.mu.Unlock()
}

func (r *Recorder) Flushed(f reactive.FlushInfo) {
	r.mu.Lock()
	r.flushes = append(r.flushes, f)
	r.mu.Unlock()
}

// Runs returns every recorded effect run.
func (r *Recorder) Runs() []reactive.EffectRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reactive.EffectRun(nil), r.runs...)
}

// RunsOf returns how many runs were recorded for effects named name.
func (r *Recorder) RunsOf(name string) int {
	n := 0
	for _, run := range r.Runs() {
		if run.Name == name {
			n++
		}
	}
	return n
}

// Triggers returns every recorded trigger.
func (r *Recorder) Triggers() []reactive.TriggerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reactive.TriggerInfo(nil), r.triggers...)
}

// Flushes returns every recorded job queue flush.
func (r *Recorder) Flushes() []reactive.FlushInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reactive.FlushInfo(nil), r.flushes...)
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.runs, r.triggers, r.flushes = nil, nil, nil
	r.mu.Unlock()
}

// =============================================================================
// Probes and assertions
// =============================================================================

// ProbeEffect is an effect that counts its runs.
type ProbeEffect struct {
	effect *reactive.Effect
	runs   int
}

// Probe creates an effect running fn and counting each run.
//
// Example:
//
//	p := reactivetest.Probe(rt, func() { state.Get("a") })
//	state.Set("a", 2)
//	reactivetest.ExpectRuns(t, p, 2)
func Probe(rt *reactive.Runtime, fn func(), opts ...reactive.EffectOption) *ProbeEffect {
	p := &ProbeEffect{}
	p.effect = rt.WatchEffect(func() any {
		p.runs++
		fn()
		return nil
	}, opts...)
	return p
}

// Runs returns how many times the probe ran.
func (p *ProbeEffect) Runs() int {
	return p.runs
}

// Effect returns the underlying effect.
func (p *ProbeEffect) Effect() *reactive.Effect {
	return p.effect
}

// Reset zeroes the run counter.
func (p *ProbeEffect) Reset() {
	p.runs = 0
}

// ExpectRuns asserts that the probe ran exactly n times.
func ExpectRuns(t testing.TB, p *ProbeEffect, n int) {
	t.Helper()
	if p.Runs() != n {
		t.Errorf("expected %d runs, got %d", n, p.Runs())
	}
}

// ExpectLogged asserts that code was logged at least once.
func ExpectLogged(t testing.TB, logs *LogCapture, code string) {
	t.Helper()
	if logs.Count(code) == 0 {
		t.Errorf("expected diagnostic %s, got %v", code, logs.Codes())
	}
}

// ExpectNotLogged asserts that code was never logged.
func ExpectNotLogged(t testing.TB, logs *LogCapture, code string) {
	t.Helper()
	if n := logs.Count(code); n != 0 {
		t.Errorf("expected no %s diagnostics, got %d", code, n)
	}
}
