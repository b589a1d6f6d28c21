package scenario

import (
	"maps"
	"strconv"
	"strings"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// EventKind classifies report events.
type EventKind string

const (
	EventEffect   EventKind = "effect"
	EventComputed EventKind = "computed"
	EventWatch    EventKind = "watch"
	EventRead     EventKind = "read"
	EventTick     EventKind = "tick"
)

// Event is one observable outcome of a scenario run.
type Event struct {
	// Step is the 1-based step that caused the event; 0 is setup.
	Step  int       `json:"step"`
	Kind  EventKind `json:"kind"`
	Name  string    `json:"name"`
	Value any       `json:"value"`
	Old   any       `json:"old,omitempty"`
}

// Report is the result of a scenario run.
type Report struct {
	Name   string         `json:"name"`
	Steps  int            `json:"steps"`
	Events []Event        `json:"events"`
	Runs   map[string]int `json:"runs"`
}

// EventsOf returns the events emitted by name.
func (r *Report) EventsOf(name string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type runner struct {
	s        *Scenario
	rt       *reactive.Runtime
	queue    *reactive.JobQueue
	state    *reactive.ReactiveRecord
	computed map[string]*reactive.Computed[float64]
	report   *Report
	step     int
}

// Run executes s on a fresh runtime built from opts. Steps run in order
// within one turn until a tick step; pending batched effects and post
// watchers flush at each tick and once more after the last step.
func Run(s *Scenario, opts ...reactive.Option) (*Report, error) {
	r := &runner{
		s:        s,
		rt:       reactive.NewRuntime(opts...),
		computed: make(map[string]*reactive.Computed[float64]),
		report: &Report{
			Name:  s.Name,
			Steps: len(s.Steps),
			Runs:  make(map[string]int),
		},
	}
	r.queue = r.rt.NewJobQueue()

	root := reactive.NewRecord()
	if s.State != nil {
		v, err := buildValue(s.State)
		if err != nil {
			return nil, errors.New("S001").WithLocation(s.File, s.State.Line, s.State.Column).Wrap(err)
		}
		rec, ok := v.(*reactive.Record)
		if !ok {
			return nil, errors.New("S001").
				WithLocation(s.File, s.State.Line, s.State.Column).
				WithDetail("state must be a plain mapping, not a !map.")
		}
		root = rec
	}
	r.state = r.rt.Record(root)

	r.setup()

	for i, step := range s.Steps {
		r.step = i + 1
		if err := r.apply(step); err != nil {
			return r.report, err
		}
	}
	if r.rt.Pending() > 0 {
		r.step = len(s.Steps)
		r.tick("end")
	}
	return r.report, nil
}

func (r *runner) emit(kind EventKind, name string, value, old any) {
	r.report.Events = append(r.report.Events, Event{
		Step:  r.step,
		Kind:  kind,
		Name:  name,
		Value: value,
		Old:   old,
	})
}

func (r *runner) setup() {
	for _, spec := range r.s.Computed {
		// A computed sees only those declared before it, so sums cannot cycle.
		visible := maps.Clone(r.computed)
		name, paths := spec.Name, spec.Sum
		r.computed[name] = reactive.NewComputed(r.rt, func() float64 {
			var total float64
			for _, p := range paths {
				total += number(r.resolve(p, visible))
			}
			r.report.Runs[name]++
			r.emit(EventComputed, name, total, nil)
			return total
		})
	}

	for _, spec := range r.s.Effects {
		name, reads := spec.Name, spec.Reads
		opts := []reactive.EffectOption{reactive.EffectName(name)}
		if spec.Batched {
			opts = append(opts, reactive.WithScheduler(r.queue.Scheduler()))
		}
		r.rt.WatchEffect(func() any {
			vals := make([]any, len(reads))
			for i, p := range reads {
				vals[i] = r.resolve(p, r.computed)
			}
			r.report.Runs[name]++
			if len(vals) == 1 {
				r.emit(EventEffect, name, vals[0], nil)
			} else {
				r.emit(EventEffect, name, vals, nil)
			}
			return nil
		}, opts...)
	}

	for _, spec := range r.s.Watches {
		r.watch(spec)
	}
}

func (r *runner) watch(spec WatchSpec) {
	name := spec.Name
	opts := []reactive.WatchOption{reactive.WatchName(name)}
	if spec.Flush != "" {
		opts = append(opts, reactive.Flush(reactive.FlushMode(spec.Flush)))
	}
	if spec.Immediate {
		opts = append(opts, reactive.Immediate())
	}
	var cb reactive.WatchCallback[any] = func(newValue, oldValue any, _ reactive.OnInvalidate) {
		r.report.Runs[name]++
		r.emit(EventWatch, name, snapshot(newValue), snapshot(oldValue))
	}

	if spec.Deep {
		var source any
		if c, ok := r.computed[spec.Source]; ok {
			source = c
		} else {
			r.rt.Untracked(func() { source, _ = r.lookup(spec.Source) })
		}
		r.rt.WatchSource(source, cb, opts...)
		return
	}
	reactive.Watch(r.rt, func() any {
		return r.resolve(spec.Source, r.computed)
	}, cb, opts...)
}

// resolve reads a computed by name or a state path, returning a snapshot.
// Unresolvable paths read as nil; the reads made on the way are still
// tracked, so the value appears once the path exists.
func (r *runner) resolve(path string, computed map[string]*reactive.Computed[float64]) any {
	if c, ok := computed[path]; ok {
		return c.Value()
	}
	v, _ := r.lookup(path)
	return snapshot(v)
}

// lookup walks a dot-separated path from the root record. Numeric segments
// index lists; the last segment on a set tests membership.
func (r *runner) lookup(path string) (any, bool) {
	var cur any = r.state
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case *reactive.ReactiveRecord:
			cur = c.Get(seg)
		case *reactive.ReactiveList:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false
			}
			cur = c.At(i)
		case *reactive.ReactiveMap:
			cur = c.Get(seg)
		case *reactive.ReactiveSet:
			cur = c.Has(member(seg))
		default:
			return nil, false
		}
	}
	return cur, true
}

// parent resolves everything but the last segment of path for a mutation.
func (r *runner) parent(step Step) (any, string, error) {
	path := step.Path
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return r.state, path, nil
	}
	container, ok := r.lookup(path[:dot])
	if !ok || !reactive.IsProxy(container) {
		return nil, "", r.stepError("S002", step).
			WithDetailf("%q does not resolve to a container.", path[:dot])
	}
	return container, path[dot+1:], nil
}

func (r *runner) container(step Step) (any, error) {
	v, ok := r.lookup(step.Path)
	if !ok || !reactive.IsProxy(v) {
		return nil, r.stepError("S002", step).
			WithDetailf("%q does not resolve to a container.", step.Path)
	}
	return v, nil
}

func (r *runner) stepError(code string, step Step) *errors.ReactorError {
	return errors.New(code).WithLocation(r.s.File, step.Line, step.Column)
}

func (r *runner) apply(step Step) error {
	switch step.Action {
	case ActionSet:
		parent, key, err := r.parent(step)
		if err != nil {
			return err
		}
		v, err := buildValue(step.Value)
		if err != nil {
			return r.stepError("S003", step).Wrap(err)
		}
		switch c := parent.(type) {
		case *reactive.ReactiveRecord:
			c.Set(key, v)
		case *reactive.ReactiveMap:
			c.Set(key, v)
		case *reactive.ReactiveList:
			i, err := strconv.Atoi(key)
			if err != nil {
				return r.stepError("S002", step).WithDetailf("%q is not a list index.", key)
			}
			c.SetAt(i, v)
		default:
			return r.stepError("S003", step).
				WithDetail("set does not apply to sets.").
				WithSuggestion("Use add or delete")
		}

	case ActionDelete:
		parent, key, err := r.parent(step)
		if err != nil {
			return err
		}
		switch c := parent.(type) {
		case *reactive.ReactiveRecord:
			c.Delete(key)
		case *reactive.ReactiveMap:
			c.Delete(key)
		case *reactive.ReactiveSet:
			c.Delete(member(key))
		case *reactive.ReactiveList:
			i, err := strconv.Atoi(key)
			if err != nil {
				return r.stepError("S002", step).WithDetailf("%q is not a list index.", key)
			}
			c.DeleteKey(reactive.Index(i))
		}

	case ActionAdd:
		target, err := r.container(step)
		if err != nil {
			return err
		}
		set, ok := target.(*reactive.ReactiveSet)
		if !ok {
			return r.stepError("S003", step).WithDetailf("add needs a set, %q is not one.", step.Path)
		}
		v, err := buildValue(step.Value)
		if err != nil {
			return r.stepError("S003", step).Wrap(err)
		}
		set.Add(v)

	case ActionPush, ActionPop, ActionLength:
		target, err := r.container(step)
		if err != nil {
			return err
		}
		list, ok := target.(*reactive.ReactiveList)
		if !ok {
			return r.stepError("S003", step).WithDetailf("%s needs a list, %q is not one.", step.Action, step.Path)
		}
		switch step.Action {
		case ActionPush:
			v, err := buildValue(step.Value)
			if err != nil {
				return r.stepError("S003", step).Wrap(err)
			}
			list.Push(v)
		case ActionPop:
			list.Pop()
		default:
			n, _ := strconv.Atoi(step.Value.Value)
			list.SetLen(n)
		}

	case ActionRead:
		if c, ok := r.computed[step.Path]; ok {
			r.emit(EventRead, step.Path, c.Value(), nil)
			return nil
		}
		v, ok := r.lookup(step.Path)
		if !ok {
			return r.stepError("S002", step).WithDetailf("%q does not resolve to a value.", step.Path)
		}
		r.emit(EventRead, step.Path, snapshot(v), nil)

	case ActionTick:
		r.tick("tick")
	}
	return nil
}

func (r *runner) tick(name string) {
	n := r.rt.Tick()
	r.emit(EventTick, name, n, nil)
}

// member converts a path segment to a set member: sets built from YAML hold
// ints for integer scalars.
func member(seg string) any {
	if n, err := strconv.Atoi(seg); err == nil {
		return n
	}
	return seg
}
