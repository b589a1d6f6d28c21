package reactive

import (
	"context"
	"log/slog"

	"github.com/vango-dev/reactor/internal/errors"
)

// DefaultRecursionLimit bounds how many times one job may run within a single
// JobQueue flush before it is dropped.
const DefaultRecursionLimit = 100

// Runtime holds all reactive state: the dependency store, wrapper caches,
// the active-effect stack and the microtask queue.
//
// A Runtime is single-threaded. Use one per goroutine.
type Runtime struct {
	logger         *slog.Logger
	observer       Observer
	recursionLimit int

	// store maps target identity -> key -> subscribed effects.
	store map[any]map[Key]*Dep

	// proxies caches one wrapper per target and flavour, indexed by Flags.
	proxies [4]map[Target]Proxy

	// activeEffect is the effect whose reads are currently tracked.
	activeEffect *Effect
	effectStack  []*Effect

	// shouldTrack is false while tracking is paused.
	shouldTrack bool
	trackStack  []bool

	microtasks []func()
	draining   bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithObserver installs an instrumentation observer.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		rt.observer = o
	}
}

// WithRecursionLimit sets how many times a job may re-run within one flush.
// Values <= 0 restore DefaultRecursionLimit.
func WithRecursionLimit(n int) Option {
	return func(rt *Runtime) {
		if n <= 0 {
			n = DefaultRecursionLimit
		}
		rt.recursionLimit = n
	}
}

// NewRuntime creates an empty runtime.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:         slog.Default().With("component", "reactive"),
		recursionLimit: DefaultRecursionLimit,
		store:          make(map[any]map[Key]*Dep),
		shouldTrack:    true,
	}
	for i := range rt.proxies {
		rt.proxies[i] = make(map[Target]Proxy)
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Logger returns the runtime's diagnostic logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Release forgets everything the runtime knows about target: its dependency
// entries and its cached wrappers. target may be a raw container, a wrapper or
// a Computed/Ref cell. Effects subscribed to the target stay alive but no
// longer hear about it.
//
// Call Release when the owning scope of a long-lived target ends.
func (rt *Runtime) Release(target any) {
	if p, ok := target.(Proxy); ok {
		target = p.Raw()
	}
	if deps, ok := rt.store[target]; ok {
		for _, d := range deps {
			for e := range d.subs {
				e.removeDep(d)
			}
		}
		delete(rt.store, target)
	}
	if t, ok := target.(Target); ok {
		for i := range rt.proxies {
			delete(rt.proxies[i], t)
		}
	}
}

// Targets returns the number of targets with at least one dependency entry.
func (rt *Runtime) Targets() int {
	return len(rt.store)
}

// depsFor returns the dependency map of a target, or nil.
func (rt *Runtime) depsFor(target any) map[Key]*Dep {
	return rt.store[target]
}

// diagnose logs a registered diagnostic code.
func (rt *Runtime) diagnose(level slog.Level, code string, attrs ...any) {
	if !rt.logger.Enabled(context.Background(), level) {
		return
	}
	e := errors.New(code)
	rt.logger.Log(context.Background(), level, e.Message, append([]any{"code", code}, attrs...)...)
}
