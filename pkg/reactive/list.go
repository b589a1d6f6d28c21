package reactive

import "iter"

// ReactiveList is the wrapper of a List.
//
// Reading Len depends on the length; reading At(i) depends on index i.
// Truncating the list re-runs effects that read any index at or past the new
// length.
type ReactiveList struct {
	base
}

func (r *ReactiveList) raw() *List {
	return r.target.(*List)
}

// At returns the element at i, tracking the index. Out-of-range reads return
// nil but still track, so a later write to i re-runs the reader.
func (r *ReactiveList) At(i int) any {
	return r.Read(Index(i))
}

// SetAt stores v at i. Writing at or past the end grows the list.
func (r *ReactiveList) SetAt(i int, v any) bool {
	if i < 0 {
		return false
	}
	return r.Write(Index(i), v)
}

// Len returns the length, tracking it.
func (r *ReactiveList) Len() int {
	n, _ := r.Read(LengthKey).(int)
	return n
}

// SetLen truncates or extends the list.
func (r *ReactiveList) SetLen(n int) bool {
	if n < 0 {
		n = 0
	}
	return r.Write(LengthKey, n)
}

// Values returns every element, tracking the length and each index.
func (r *ReactiveList) Values() []any {
	n := r.Len()
	out := make([]any, n)
	for i := range n {
		out[i] = r.At(i)
	}
	return out
}

// All iterates over index/element pairs, tracking what it visits.
func (r *ReactiveList) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		n := r.Len()
		for i := 0; i < n; i++ {
			if !yield(i, r.At(i)) {
				return
			}
		}
	}
}

// =============================================================================
// Stack mutators
//
// These read the length and indices internally. Tracking is paused while they
// run, so an effect that pushes does not end up depending on the length it
// just changed.
// =============================================================================

// mutate runs fn with tracking paused. Read-only lists warn and skip fn.
func (r *ReactiveList) mutate(op string, fn func()) {
	if r.readonly() {
		r.warnReadonly(op, LengthKey)
		return
	}
	r.rt.PauseTracking()
	defer r.rt.ResetTracking()
	fn()
}

// Push appends vals and returns the new length.
func (r *ReactiveList) Push(vals ...any) int {
	r.mutate("push", func() {
		for _, v := range vals {
			r.SetAt(r.Len(), v)
		}
	})
	return r.raw().Len()
}

// Pop removes and returns the last element, or nil if the list is empty.
func (r *ReactiveList) Pop() any {
	var out any
	r.mutate("pop", func() {
		n := r.Len()
		if n == 0 {
			return
		}
		out = r.At(n - 1)
		r.SetLen(n - 1)
	})
	return out
}

// Shift removes and returns the first element, or nil if the list is empty.
func (r *ReactiveList) Shift() any {
	var out any
	r.mutate("shift", func() {
		n := r.Len()
		if n == 0 {
			return
		}
		out = r.At(0)
		for i := 1; i < n; i++ {
			r.SetAt(i-1, r.At(i))
		}
		r.SetLen(n - 1)
	})
	return out
}

// Unshift prepends vals and returns the new length.
func (r *ReactiveList) Unshift(vals ...any) int {
	r.mutate("unshift", func() {
		k := len(vals)
		if k == 0 {
			return
		}
		for i := r.Len() - 1; i >= 0; i-- {
			r.SetAt(i+k, r.At(i))
		}
		for j, v := range vals {
			r.SetAt(j, v)
		}
	})
	return r.raw().Len()
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place, and returns the removed elements. A negative start counts from
// the end.
func (r *ReactiveList) Splice(start, deleteCount int, items ...any) []any {
	var removed []any
	r.mutate("splice", func() {
		n := r.Len()
		if start < 0 {
			start = max(n+start, 0)
		}
		start = min(start, n)
		deleteCount = max(min(deleteCount, n-start), 0)

		removed = make([]any, deleteCount)
		for i := range deleteCount {
			removed[i] = r.At(start + i)
		}

		tail := make([]any, 0, len(items)+n-start-deleteCount)
		tail = append(tail, items...)
		for i := start + deleteCount; i < n; i++ {
			tail = append(tail, r.At(i))
		}
		for i, v := range tail {
			r.SetAt(start+i, v)
		}
		if newLen := start + len(tail); newLen < n {
			r.SetLen(newLen)
		}
	})
	return removed
}

// =============================================================================
// Search
//
// Elements come back wrapped, so a raw argument never matches them. Each
// search tries the wrapped view first and falls back to the raw elements.
// =============================================================================

// Includes reports whether v is an element. It matches by same value, so
// Includes(NaN) finds a NaN element.
func (r *ReactiveList) Includes(v any) bool {
	return r.search(v, false, sameValue) >= 0
}

// IndexOf returns the first index of v, or -1. It matches by strict
// equality: NaN is never found.
func (r *ReactiveList) IndexOf(v any) int {
	return r.search(v, false, strictEqual)
}

// LastIndexOf returns the last index of v, or -1, matching like IndexOf.
func (r *ReactiveList) LastIndexOf(v any) int {
	return r.search(v, true, strictEqual)
}

func (r *ReactiveList) search(v any, fromEnd bool, equal func(a, b any) bool) int {
	raw := r.raw()
	n := raw.Len()
	r.track(LengthKey)
	for i := range n {
		r.track(Index(i))
	}

	find := func(eq func(elem any) bool) int {
		if fromEnd {
			for i := n - 1; i >= 0; i-- {
				if eq(raw.At(i)) {
					return i
				}
			}
			return -1
		}
		for i := range n {
			if eq(raw.At(i)) {
				return i
			}
		}
		return -1
	}

	if i := find(func(elem any) bool { return equal(r.wrapValue(elem), v) }); i >= 0 {
		return i
	}
	rv := ToRaw(v)
	return find(func(elem any) bool { return equal(elem, rv) })
}
