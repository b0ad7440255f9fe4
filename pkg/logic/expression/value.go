package expression

import (
	"reflect"
	"time"
)

// AbsentValue is the sentinel type for a declared but unfilled value.
// It is deliberately distinct from false, 0, "" and nil so that optional
// data can never be conflated with filled-in falsy data.
type AbsentValue struct{}

// String implements fmt.Stringer.
func (AbsentValue) String() string { return "<absent>" }

// Absent is the sentinel resolvers return for declared-but-missing values.
var Absent = AbsentValue{}

// IsAbsent reports whether v is the absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(AbsentValue)
	return ok
}

// asNumber normalizes a concrete value to float64. Snapshot data arrives
// from JSON-ish sources (float64) as well as hand-built Go maps (int).
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// equal implements structural equality: numbers compare numerically across
// representations, Absent equals only Absent, everything else compares via
// reflect.DeepEqual.
func equal(a, b any) bool {
	if IsAbsent(a) || IsAbsent(b) {
		return IsAbsent(a) && IsAbsent(b)
	}
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return an == bn
		}
		return false
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// asBool maps a value onto boolean truth at a boolean boundary (logical
// operators, visible/required/disabled/include slots). Absent counts as
// false there; any other non-boolean is rejected so the runtime never
// accepts a value the static checker ruled out.
func asBool(v any) (result, ok bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case AbsentValue:
		return false, true
	default:
		return false, false
	}
}
