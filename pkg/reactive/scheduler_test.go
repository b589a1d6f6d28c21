package reactive

import (
	"strings"
	"testing"
)

type recordingObserver struct {
	runs     []EffectRun
	triggers []TriggerInfo
	flushes  []FlushInfo
}

func (o *recordingObserver) EffectRan(r EffectRun)   { o.runs = append(o.runs, r) }
func (o *recordingObserver) Triggered(t TriggerInfo) { o.triggers = append(o.triggers, t) }
func (o *recordingObserver) Flushed(f FlushInfo)     { o.flushes = append(o.flushes, f) }

func TestMicrotaskOrder(t *testing.T) {
	rt := NewRuntime()
	var order []string

	rt.QueueMicrotask(func() {
		order = append(order, "a")
		rt.QueueMicrotask(func() { order = append(order, "c") })
	})
	rt.QueueMicrotask(func() { order = append(order, "b") })

	if rt.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", rt.Pending())
	}
	if n := rt.Tick(); n != 3 {
		t.Errorf("Tick() ran %d, want 3", n)
	}
	if strings.Join(order, "") != "abc" {
		t.Errorf("order = %v", order)
	}
	if rt.Pending() != 0 {
		t.Errorf("Pending() after Tick = %d", rt.Pending())
	}
}

func TestTickReentrant(t *testing.T) {
	rt := NewRuntime()
	inner := -1
	rt.QueueMicrotask(func() {
		rt.QueueMicrotask(func() {})
		inner = rt.Tick()
	})
	if n := rt.Tick(); n != 2 {
		t.Errorf("outer Tick ran %d, want 2", n)
	}
	if inner != 0 {
		t.Errorf("nested Tick ran %d, want 0", inner)
	}
}

func TestTickPanicKeepsRemainingTasks(t *testing.T) {
	rt := NewRuntime()
	ran := false
	rt.QueueMicrotask(func() { panic("boom") })
	rt.QueueMicrotask(func() { ran = true })

	func() {
		defer func() { _ = recover() }()
		rt.Tick()
	}()

	if ran {
		t.Fatal("task after the panicking one ran in the same Tick")
	}
	if rt.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", rt.Pending())
	}
	rt.Tick()
	if !ran {
		t.Error("remaining task did not run on the next Tick")
	}
}

func TestJobQueueBatchesWrites(t *testing.T) {
	rt := NewRuntime()
	q := rt.NewJobQueue()
	state := rt.Record(NewRecord("first", "a", "last", "b"))

	runs := 0
	var full string
	rt.WatchEffect(func() any {
		runs++
		full = state.Get("first").(string) + " " + state.Get("last").(string)
		return nil
	}, WithScheduler(q.Scheduler()))

	rt.Turn(func() {
		state.Set("first", "Ada")
		state.Set("last", "Lovelace")
		if q.Len() != 1 {
			t.Errorf("queue length = %d, want 1", q.Len())
		}
		if !q.Flushing() {
			t.Error("flush not queued")
		}
		if runs != 1 {
			t.Errorf("job ran before the turn ended (%d runs)", runs)
		}
	})

	if runs != 2 {
		t.Errorf("expected exactly one batched run (2 total), got %d", runs)
	}
	if full != "Ada Lovelace" {
		t.Errorf("full = %q", full)
	}
	if q.Flushing() || q.Len() != 0 {
		t.Errorf("queue not reset: flushing=%v len=%d", q.Flushing(), q.Len())
	}
}

func TestJobQueueRunsInScheduleOrder(t *testing.T) {
	rt := NewRuntime()
	q := rt.NewJobQueue()
	a := rt.Record(NewRecord("v", 0))
	b := rt.Record(NewRecord("v", 0))

	var order []string
	rt.WatchEffect(func() any {
		_ = a.Get("v")
		order = append(order, "A")
		return nil
	}, WithScheduler(q.Scheduler()))
	rt.WatchEffect(func() any {
		_ = b.Get("v")
		order = append(order, "B")
		return nil
	}, WithScheduler(q.Scheduler()))

	order = nil
	rt.Turn(func() {
		b.Set("v", 1)
		a.Set("v", 1)
	})
	if strings.Join(order, "") != "BA" {
		t.Errorf("order = %v, want [B A]", order)
	}
}

func TestJobQueueSkipsStoppedJobs(t *testing.T) {
	rt := NewRuntime()
	q := rt.NewJobQueue()
	state := rt.Record(NewRecord("v", 0))

	runs := 0
	e := rt.WatchEffect(func() any {
		runs++
		return state.Get("v")
	}, WithScheduler(q.Scheduler()))

	state.Set("v", 1)
	e.Stop()
	rt.Tick()
	if runs != 1 {
		t.Errorf("stopped job ran (%d runs)", runs)
	}
}

func TestJobQueueResetsAfterPanic(t *testing.T) {
	obs := &recordingObserver{}
	rt := NewRuntime(WithObserver(obs))
	q := rt.NewJobQueue()
	state := rt.Record(NewRecord("fail", false))

	runs := 0
	rt.WatchEffect(func() any {
		runs++
		if state.Get("fail").(bool) {
			panic("job failed")
		}
		return nil
	}, WithScheduler(q.Scheduler()))

	state.Set("fail", true)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the job panic to surface from Tick")
			}
		}()
		rt.Tick()
	}()

	if q.Flushing() {
		t.Fatal("flushing flag stuck after a panicking job")
	}
	if q.Len() != 0 {
		t.Fatalf("queue not cleared: %d", q.Len())
	}
	if len(obs.flushes) != 1 || !obs.flushes[0].Panicked {
		t.Errorf("flush report = %+v", obs.flushes)
	}

	state.Set("fail", false)
	rt.Tick()
	if runs != 3 {
		t.Errorf("queue did not recover: %d runs, want 3", runs)
	}
}

func TestJobQueueRecursionLimit(t *testing.T) {
	logged, logs := newTestRuntime(t)
	obs := &recordingObserver{}
	rt := NewRuntime(WithLogger(logged.Logger()), WithObserver(obs), WithRecursionLimit(5))
	q := rt.NewJobQueue()
	state := rt.Record(NewRecord("count", 0))

	rt.WatchEffect(func() any {
		state.Set("count", state.Get("count").(int)+1)
		return nil
	}, WithScheduler(q.Scheduler()), EffectName("counter"))

	rt.Tick()

	// One synchronous run on creation, then the limit inside the flush.
	if v, _ := ToRaw(state).(*Record).Get("count"); v != 6 {
		t.Errorf("count = %v, want 6", v)
	}
	if !strings.Contains(logs.String(), "code=R002") {
		t.Errorf("expected R002 error log:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "effect=counter") {
		t.Errorf("R002 log does not name the effect:\n%s", logs.String())
	}
	if len(obs.flushes) != 1 {
		t.Fatalf("flushes = %d, want 1", len(obs.flushes))
	}
	if f := obs.flushes[0]; f.Jobs != 5 || f.Dropped != 1 || f.Panicked {
		t.Errorf("flush = %+v", f)
	}
	if q.Flushing() {
		t.Error("queue still flushing after the limit")
	}
}

func TestObserverReportsRunsAndTriggers(t *testing.T) {
	obs := &recordingObserver{}
	rt := NewRuntime(WithObserver(Observers(nil, obs)))
	state := rt.Record(NewRecord("a", 1))

	rt.WatchEffect(func() any {
		return state.Get("a")
	}, EffectName("reader"))
	state.Set("a", 2)

	if len(obs.runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(obs.runs))
	}
	if r := obs.runs[0]; r.Name != "reader" || r.Deps != 1 || r.Panicked {
		t.Errorf("run = %+v", r)
	}
	if len(obs.triggers) != 1 {
		t.Fatalf("triggers = %d, want 1", len(obs.triggers))
	}
	tr := obs.triggers[0]
	if tr.Target != "record" || tr.Op != OpSet || tr.Ran != 1 || tr.Key != Prop("a") {
		t.Errorf("trigger = %+v", tr)
	}
}
