package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// =============================================================================
// X - resolved x-coordinate
// =============================================================================

// XKind tags the variant held by an [X].
type XKind uint8

const (
	// XNull is an x that was present but could not be interpreted.
	XNull XKind = iota
	// XNumber is a numeric x: a raw number, a category position or an index.
	XNumber
	// XTime is a parsed time-series x.
	XTime
)

// X is a resolved x-coordinate. The zero value is a null x.
type X struct {
	Kind XKind
	Num  float64
	Time time.Time
}

// NumberX returns a numeric x.
func NumberX(f float64) X { return X{Kind: XNumber, Num: f} }

// TimeX returns a time x.
func TimeX(t time.Time) X { return X{Kind: XTime, Time: t} }

// NullX returns a null x.
func NullX() X { return X{} }

// IsNull reports whether x is null.
func (x X) IsNull() bool { return x.Kind == XNull }

// Float returns x on a numeric scale: numbers as-is, times as Unix
// milliseconds and null as +Inf, so null sorts after every other value.
func (x X) Float() float64 {
	switch x.Kind {
	case XNumber:
		return x.Num
	case XTime:
		return float64(x.Time.UnixMilli())
	default:
		return math.Inf(1)
	}
}

// String formats x for display.
func (x X) String() string {
	switch x.Kind {
	case XNumber:
		return formatFloat(x.Num)
	case XTime:
		return x.Time.Format(time.RFC3339)
	default:
		return "null"
	}
}

// MarshalJSON encodes numbers as JSON numbers, times as RFC 3339 strings and
// null as null.
func (x X) MarshalJSON() ([]byte, error) {
	switch x.Kind {
	case XNumber:
		return json.Marshal(x.Num)
	case XTime:
		return json.Marshal(x.Time.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reverses MarshalJSON.
func (x *X) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*x = NullX()
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*x = NumberX(t)
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return fmt.Errorf("x: %w", err)
		}
		*x = TimeX(ts)
	default:
		return fmt.Errorf("x: unsupported json value %s", data)
	}
	return nil
}

// =============================================================================
// Value - cell value of a point
// =============================================================================

// ValueKind tags the variant held by a [Value].
type ValueKind uint8

const (
	// ValueNull is a gap.
	ValueNull ValueKind = iota
	// ValueNumber is a finite number.
	ValueNumber
	// ValueRange is a high/low range.
	ValueRange
	// ValueArray is a raw array passed through unchanged.
	ValueArray
)

// Range is a value spanning low to high with an optional mid point.
type Range struct {
	High float64  `json:"high"`
	Mid  *float64 `json:"mid,omitempty"`
	Low  float64  `json:"low"`
}

// Value is the tagged cell value of a point. The zero value is null.
type Value struct {
	Kind  ValueKind
	Num   float64
	Range Range
	Array []any
}

// Null returns a null value.
func Null() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// RangeValue returns a range value.
func RangeValue(r Range) Value { return Value{Kind: ValueRange, Range: r} }

// Array returns an array value.
func Array(a []any) Value { return Value{Kind: ValueArray, Array: a} }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.Kind == ValueNull }

// Negative reports whether v holds anything below zero.
func (v Value) Negative() bool {
	switch v.Kind {
	case ValueNumber:
		return v.Num < 0
	case ValueRange:
		return v.Range.Low < 0 || v.Range.High < 0
	case ValueArray:
		for _, e := range v.Array {
			if f, ok := toNumber(e); ok && f < 0 {
				return true
			}
		}
	}
	return false
}

// Positive reports whether v holds anything above zero.
func (v Value) Positive() bool {
	switch v.Kind {
	case ValueNumber:
		return v.Num > 0
	case ValueRange:
		return v.Range.Low > 0 || v.Range.High > 0
	case ValueArray:
		for _, e := range v.Array {
			if f, ok := toNumber(e); ok && f > 0 {
				return true
			}
		}
	}
	return false
}

// String formats v for display.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return formatFloat(v.Num)
	case ValueRange:
		return fmt.Sprintf("%s..%s", formatFloat(v.Range.Low), formatFloat(v.Range.High))
	case ValueArray:
		return fmt.Sprint(v.Array)
	default:
		return "null"
	}
}

// MarshalJSON encodes the active variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueRange:
		return json.Marshal(v.Range)
	case ValueArray:
		return json.Marshal(v.Array)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value through [Coerce].
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}

// =============================================================================
// Point and Target
// =============================================================================

// Point is one entry of a target series.
type Point struct {
	X     X      `json:"x"`
	Value Value  `json:"value"`
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// Target is a finished series ready for rendering.
type Target struct {
	// ID is the series id after id conversion.
	ID string `json:"id"`
	// IDOrg is the original field name; caches are keyed by it.
	IDOrg  string  `json:"id_org"`
	Values []Point `json:"values"`
}

// Len returns the number of points.
func (t Target) Len() int { return len(t.Values) }

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
