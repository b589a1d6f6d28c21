package reactive

import "testing"

func TestRef(t *testing.T) {
	rt := NewRuntime()
	count := NewRef(rt, 0)

	runs := 0
	var seen int
	rt.WatchEffect(func() any {
		runs++
		seen = count.Value()
		return nil
	})

	count.Set(1)
	if runs != 2 || seen != 1 {
		t.Errorf("runs=%d seen=%d", runs, seen)
	}
	count.Set(1)
	if runs != 2 {
		t.Errorf("same-value Set triggered (%d)", runs)
	}
	count.Update(func(n int) int { return n + 10 })
	if seen != 11 {
		t.Errorf("expected 11, got %d", seen)
	}
}

func TestRefPeek(t *testing.T) {
	rt := NewRuntime()
	r := NewRef(rt, "a")

	runs := 0
	rt.WatchEffect(func() any {
		runs++
		return r.Peek()
	})
	r.Set("b")
	if runs != 1 {
		t.Errorf("Peek created a dependency (%d runs)", runs)
	}
}

func TestRefHoldingComposite(t *testing.T) {
	rt := NewRuntime()
	a, b := NewRecord(), NewRecord()
	r := NewRef[*Record](rt, a)

	runs := 0
	rt.WatchEffect(func() any {
		runs++
		return r.Value()
	})
	r.Set(a)
	if runs != 1 {
		t.Errorf("same pointer triggered (%d)", runs)
	}
	r.Set(b)
	if runs != 2 {
		t.Errorf("different pointer did not trigger (%d)", runs)
	}
}

func TestToRef(t *testing.T) {
	rt := NewRuntime()
	raw := NewRecord("name", "ada")
	state := rt.Record(raw)
	name := ToRef(state, "name")

	var seen any
	rt.WatchEffect(func() any {
		seen = name.Value()
		return nil
	})

	state.Set("name", "grace")
	if seen != "grace" {
		t.Errorf("ref did not follow the record: %v", seen)
	}

	name.Set("linus")
	if v, _ := raw.Get("name"); v != "linus" {
		t.Errorf("ref write did not reach the record: %v", v)
	}
	if seen != "linus" {
		t.Errorf("ref write did not trigger: %v", seen)
	}
}

func TestToRefs(t *testing.T) {
	rt := NewRuntime()
	state := rt.Record(NewRecord("x", 1, "y", 2))

	refs := ToRefs(state)
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d", len(refs))
	}
	if refs["y"].Name() != "y" || refs["y"].Value() != 2 {
		t.Errorf("ref y = %s:%v", refs["y"].Name(), refs["y"].Value())
	}
	refs["x"].Set(10)
	if state.Get("x") != 10 {
		t.Errorf("x = %v", state.Get("x"))
	}
}

func TestIsRefAndUnref(t *testing.T) {
	rt := NewRuntime()
	r := NewRef(rt, 5)
	p := ToRef(rt.Record(NewRecord("v", "x")), "v")

	tests := []struct {
		name  string
		v     any
		isRef bool
		unref any
	}{
		{"ref", r, true, 5},
		{"property ref", p, true, "x"},
		{"plain", 7, false, 7},
		{"nil", nil, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsRef(tt.v) != tt.isRef {
				t.Errorf("IsRef = %v, want %v", !tt.isRef, tt.isRef)
			}
			if got := Unref(tt.v); got != tt.unref {
				t.Errorf("Unref = %v, want %v", got, tt.unref)
			}
		})
	}
}
