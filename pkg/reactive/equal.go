package reactive

import (
	"math"
	"reflect"
)

// hasChanged reports whether a write of newValue over oldValue is observable.
//
// Equality is same-value: NaN equals NaN, composites (containers, wrappers,
// pointers) compare by identity, +0 equals -0. Values whose dynamic type is
// not comparable (slices, maps, funcs) are always considered changed.
func hasChanged(oldValue, newValue any) bool {
	return !sameValue(oldValue, newValue)
}

func sameValue(a, b any) (same bool) {
	if isNaN(a) && isNaN(b) {
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	if !ta.Comparable() {
		return false
	}
	// Structs holding uncomparable interface values panic on ==.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// strictEqual is sameValue except that NaN equals nothing.
func strictEqual(a, b any) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}
	return sameValue(a, b)
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}
