package series

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw cell into a [Value].
//
// Anything numeric-coercible becomes a finite number: Go numbers,
// json.Number, numeric strings and booleans (1 or 0). A blank string, such
// as an empty CSV cell, is 0. Arrays pass through unchanged, objects with a
// non-zero "high" member become ranges and every other cell is null.
func Coerce(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		if strings.TrimSpace(t) == "" {
			return Number(0)
		}
	}
	if f, ok := toNumber(v); ok {
		return Number(f)
	}
	switch t := v.(type) {
	case []any:
		return Array(t)
	case []float64:
		a := make([]any, len(t))
		for i, f := range t {
			a[i] = f
		}
		return Array(a)
	case map[string]any:
		if r, ok := toRange(t); ok {
			return RangeValue(r)
		}
	case Range:
		return RangeValue(t)
	}
	return Null()
}

func toRange(m map[string]any) (Range, bool) {
	high, ok := toNumber(m["high"])
	if !ok || high == 0 {
		return Range{}, false
	}
	r := Range{High: high}
	if low, ok := toNumber(m["low"]); ok {
		r.Low = low
	}
	if mid, ok := toNumber(m["mid"]); ok {
		r.Mid = &mid
	}
	return r, true
}

// toNumber returns v as a finite float64.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truthy follows the loose truthiness used when deciding whether a raw
// time-series x is usable on its own.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	return true
}

// isValue reports whether a raw x cell carries a value: zero counts, while
// nil, false, NaN and the empty string do not.
func isValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return !math.IsNaN(t)
	}
	return true
}
