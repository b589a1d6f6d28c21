package reactive

import (
	"testing"
)

func TestEffectRunsImmediately(t *testing.T) {
	rt := NewRuntime()
	runs := 0
	rt.WatchEffect(func() any {
		runs++
		return nil
	})
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
}

func TestEffectLazy(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1))
	runs := 0

	e := rt.WatchEffect(func() any {
		runs++
		return state.Get("a")
	}, Lazy())

	if runs != 0 {
		t.Fatalf("lazy effect ran on creation")
	}
	state.Set("a", 2)
	if runs != 0 {
		t.Errorf("lazy effect without dependencies should not run on write, got %d runs", runs)
	}

	if got := e.Run(); got != 2 {
		t.Errorf("Run() = %v, want 2", got)
	}
	state.Set("a", 3)
	if runs != 2 {
		t.Errorf("expected 2 runs after first tracked write, got %d", runs)
	}
}

func TestEffectBasicReactivity(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1))

	var seen any
	runs := 0
	rt.WatchEffect(func() any {
		runs++
		seen = state.Get("a")
		return nil
	})

	state.Set("a", 2)
	if seen != 2 {
		t.Errorf("expected captured value 2, got %v", seen)
	}
	if runs != 2 {
		t.Errorf("expected exactly one run per write (2 total), got %d", runs)
	}

	state.Set("a", 3)
	if runs != 3 {
		t.Errorf("expected 3 runs, got %d", runs)
	}
}

func TestEffectSameValueWriteDoesNotRun(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1))
	runs := 0
	rt.WatchEffect(func() any {
		runs++
		return state.Get("a")
	})

	state.Set("a", 1)
	if runs != 1 {
		t.Errorf("writing the same value should not re-run, got %d runs", runs)
	}
}

func TestEffectBranchPruning(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("flag", false, "a", "A", "b", "B"))

	runs := 0
	var result any
	rt.WatchEffect(func() any {
		runs++
		if state.Get("flag").(bool) {
			result = state.Get("a")
		} else {
			result = state.Get("b")
		}
		return nil
	})

	state.Set("a", "A2")
	if runs != 1 {
		t.Errorf("write to untaken branch re-ran the effect (%d runs)", runs)
	}

	state.Set("b", "B2")
	if runs != 2 || result != "B2" {
		t.Errorf("write to taken branch: runs=%d result=%v", runs, result)
	}

	// Switch branches: a becomes a dependency, b stops being one.
	state.Set("flag", true)
	if result != "A2" {
		t.Errorf("expected A2 after switching branch, got %v", result)
	}
	runs = 0
	state.Set("b", "B3")
	if runs != 0 {
		t.Errorf("stale dependency b still triggers (%d runs)", runs)
	}
	state.Set("a", "A3")
	if runs != 1 || result != "A3" {
		t.Errorf("runs=%d result=%v after writing a", runs, result)
	}
}

func TestEffectSelfTriggerGuard(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 0))

	runs := 0
	e := rt.WatchEffect(func() any {
		runs++
		state.Set("a", state.Get("a").(int)+1)
		return nil
	})

	if runs != 1 {
		t.Fatalf("expected 1 run on creation, got %d", runs)
	}
	if v, _ := ToRaw(state).(*Record).Get("a"); v != 1 {
		t.Errorf("a = %v, want 1", v)
	}

	e.Run()
	if runs != 2 {
		t.Errorf("explicit Run should execute the body exactly once, got %d runs", runs)
	}
}

func TestEffectNested(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("outer", 1, "inner", 1))

	outerRuns, innerRuns := 0, 0
	rt.WatchEffect(func() any {
		outerRuns++
		rt.WatchEffect(func() any {
			innerRuns++
			return state.Get("inner")
		})
		return state.Get("outer")
	})

	if outerRuns != 1 || innerRuns != 1 {
		t.Fatalf("outer=%d inner=%d after creation", outerRuns, innerRuns)
	}

	// outer is read after the inner effect popped: it must belong to the outer effect.
	state.Set("outer", 2)
	if outerRuns != 2 {
		t.Errorf("outer effect did not re-run, got %d", outerRuns)
	}

	if rt.ActiveEffect() != nil {
		t.Errorf("active effect leaked after nested runs")
	}
}

func TestEffectStop(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1))

	runs := 0
	stopped := false
	e := rt.WatchEffect(func() any {
		runs++
		return state.Get("a")
	}, OnStop(func() { stopped = true }))

	e.Stop()
	if !stopped {
		t.Error("OnStop not called")
	}
	if e.Active() {
		t.Error("effect still active after Stop")
	}
	if len(e.Deps()) != 0 {
		t.Errorf("expected no deps after Stop, got %d", len(e.Deps()))
	}

	state.Set("a", 2)
	if runs != 1 {
		t.Errorf("stopped effect re-ran (%d runs)", runs)
	}

	e.Stop() // idempotent
}

func TestStoppedEffectRunDoesNotSubscribeCaller(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1))

	inner := rt.WatchEffect(func() any { return state.Get("a") })
	inner.Stop()

	outerRuns := 0
	rt.WatchEffect(func() any {
		outerRuns++
		return inner.Run()
	})

	state.Set("a", 2)
	if outerRuns != 1 {
		t.Errorf("stopped effect's reads subscribed the caller (%d runs)", outerRuns)
	}
}

func TestEffectDepsBackReferences(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1, "b", 2))

	e := rt.WatchEffect(func() any {
		_ = state.Get("a")
		_ = state.Get("a")
		return state.Get("b")
	})

	deps := e.Deps()
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps (a, b), got %d", len(deps))
	}
	for _, d := range deps {
		if !d.Has(e) {
			t.Errorf("dep %v does not contain its effect", d.Key())
		}
	}
}

func TestEffectPanicLeavesGraphConsistent(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("fail", false, "a", 1))

	runs := 0
	rt.WatchEffect(func() any {
		runs++
		if state.Get("fail").(bool) {
			panic("boom")
		}
		return state.Get("a")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate to the writer")
			}
		}()
		state.Set("fail", true)
	}()

	if rt.ActiveEffect() != nil {
		t.Fatal("active effect not restored after panic")
	}

	// The failed run tracked only "fail"; "a" is no longer a dependency.
	state.Set("a", 2)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}

	state.Set("fail", false)
	if runs != 3 {
		t.Errorf("expected recovery run, got %d runs", runs)
	}
	state.Set("a", 3)
	if runs != 4 {
		t.Errorf("expected a to be tracked again, got %d runs", runs)
	}
}

func TestEffectRunOrderIsCreationOrder(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 0))

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		rt.WatchEffect(func() any {
			_ = state.Get("a")
			order = append(order, name)
			return nil
		})
	}

	order = nil
	state.Set("a", 1)
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestUntracked(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("a", 1, "b", 1))

	runs := 0
	rt.WatchEffect(func() any {
		runs++
		rt.Untracked(func() {
			_ = state.Get("b")
		})
		return state.Get("a")
	})

	state.Set("b", 2)
	if runs != 1 {
		t.Errorf("untracked read became a dependency (%d runs)", runs)
	}
	state.Set("a", 2)
	if runs != 2 {
		t.Errorf("tracked read lost after Untracked (%d runs)", runs)
	}
}

func TestRelease(t *testing.T) {
	rt := NewRuntime()
	raw := NewRecord("a", 1)
	state := rt.Record(raw)

	e := rt.WatchEffect(func() any {
		return state.Get("a")
	})
	if rt.Targets() != 1 {
		t.Fatalf("expected 1 tracked target, got %d", rt.Targets())
	}

	rt.Release(state)
	if rt.Targets() != 0 {
		t.Errorf("Release left %d targets", rt.Targets())
	}
	if len(e.Deps()) != 0 {
		t.Errorf("Release left %d back-references", len(e.Deps()))
	}
	if rt.Record(raw) == state {
		t.Error("Release should drop the cached wrapper")
	}
}
