package reactive

import (
	"log/slog"
	"time"
)

// =============================================================================
// Microtask turns
//
// A turn is the synchronous code run between two Tick calls. Deferred work
// (JobQueue flushes, FlushPost watch callbacks) is queued as microtasks and
// only runs when the current turn ends.
// =============================================================================

// QueueMicrotask defers fn to the end of the current turn.
func (rt *Runtime) QueueMicrotask(fn func()) {
	rt.microtasks = append(rt.microtasks, fn)
}

// Pending returns the number of queued microtasks.
func (rt *Runtime) Pending() int {
	return len(rt.microtasks)
}

// Tick ends the current turn: it drains the microtask queue completely,
// including microtasks queued while draining, and returns how many ran.
//
// If a microtask panics, it has already been removed from the queue; the
// remaining microtasks stay queued for the next Tick. A Tick called from inside
// a microtask returns immediately, the outer Tick keeps draining.
func (rt *Runtime) Tick() int {
	if rt.draining {
		return 0
	}
	rt.draining = true
	defer func() { rt.draining = false }()

	ran := 0
	for len(rt.microtasks) > 0 {
		task := rt.microtasks[0]
		rt.microtasks[0] = nil
		rt.microtasks = rt.microtasks[1:]
		ran++
		task()
	}
	rt.microtasks = nil
	return ran
}

// Turn runs fn as one synchronous turn, then drains the microtask queue.
//
// Example:
//
//	rt.Turn(func() {
//	    state.Set("first", "Ada")
//	    state.Set("last", "Lovelace")
//	})
//	// batched effects have run exactly once here
func (rt *Runtime) Turn(fn func()) {
	fn()
	rt.Tick()
}

// =============================================================================
// JobQueue
// =============================================================================

// JobQueue is a batching scheduler. Effects scheduled on it during a turn are
// deduplicated and run once, in scheduling order, when the turn ends.
type JobQueue struct {
	rt *Runtime

	queue    []*Effect
	queued   map[*Effect]struct{}
	flushing bool

	// runs counts executions per job within the current flush.
	runs map[*Effect]int
}

// NewJobQueue creates a batching scheduler bound to rt's microtask queue.
func (rt *Runtime) NewJobQueue() *JobQueue {
	return &JobQueue{
		rt:     rt,
		queued: make(map[*Effect]struct{}),
		runs:   make(map[*Effect]int),
	}
}

// Scheduler returns q.Schedule as a Scheduler for WithScheduler.
func (q *JobQueue) Scheduler() Scheduler {
	return q.Schedule
}

// Schedule enqueues e. Enqueuing a job that is already queued is a no-op. The
// first enqueue of a turn queues a single flush.
func (q *JobQueue) Schedule(e *Effect) {
	if _, ok := q.queued[e]; !ok {
		q.queued[e] = struct{}{}
		q.queue = append(q.queue, e)
	}
	if q.flushing {
		return
	}
	q.flushing = true
	q.rt.QueueMicrotask(q.flush)
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int {
	return len(q.queue)
}

// Flushing reports whether a flush is queued or running.
func (q *JobQueue) Flushing() bool {
	return q.flushing
}

// flush drains the queue. Jobs scheduled while it runs are appended and run in
// the same flush. The queue and the flushing flag are reset on every exit path,
// including a panicking job; otherwise no later Schedule would ever flush.
func (q *JobQueue) flush() {
	start := time.Now()
	info := FlushInfo{Panicked: true}
	defer func() {
		clear(q.queue)
		q.queue = q.queue[:0]
		clear(q.queued)
		clear(q.runs)
		q.flushing = false

		if q.rt.observer != nil {
			info.Duration = time.Since(start)
			q.rt.observer.Flushed(info)
		}
	}()

	for i := 0; i < len(q.queue); i++ {
		e := q.queue[i]
		delete(q.queued, e)
		if !e.Active() {
			continue
		}
		q.runs[e]++
		if q.runs[e] > q.rt.recursionLimit {
			info.Dropped++
			q.rt.diagnose(slog.LevelError, "R002",
				"effect", e.Name(),
				"id", e.ID(),
				"limit", q.rt.recursionLimit,
			)
			continue
		}
		info.Jobs++
		e.Run()
	}
	info.Panicked = false
}
