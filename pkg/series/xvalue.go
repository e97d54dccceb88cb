package series

import (
	"encoding/json"
	"strings"
	"time"
)

// generateX resolves the x of record i of series id from its raw x cell.
//
// Time series parse the raw cell, falling back to the known x at i. Custom
// non-categorized x takes the raw number, falling back to the known x at i
// when the cell is blank.
// Everything else uses the record position.
func (b *Builder) generateX(st *stage, raw any, present bool, id string, i int) X {
	switch {
	case b.opts.IsTimeSeries():
		if present && truthy(raw) {
			return b.parseTime(raw)
		}
		return b.parseTime(xAt(st, id, i))
	case b.opts.IsCustomX() && !b.opts.IsCategorized():
		if present && isValue(raw) {
			if f, ok := toNumber(raw); ok {
				return NumberX(f)
			}
			return NullX()
		}
		return xAt(st, id, i)
	default:
		return NumberX(float64(i))
	}
}

// xAt returns the known x of id at i, or i itself.
func xAt(st *stage, id string, i int) X {
	if xs, ok := st.getXs(id); ok && i < len(xs) && !xs[i].IsNull() {
		return xs[i]
	}
	return NumberX(float64(i))
}

// parseTime converts a raw cell into a time x. Strings are parsed with the
// configured layout; numbers are Unix milliseconds. Unparseable cells yield
// a null x.
func (b *Builder) parseTime(raw any) X {
	switch t := raw.(type) {
	case X:
		if t.Kind == XNumber {
			return TimeX(time.UnixMilli(int64(t.Num)).UTC())
		}
		return t
	case time.Time:
		return TimeX(t)
	case string:
		ts, err := time.Parse(b.opts.xFormat(), strings.TrimSpace(t))
		if err != nil {
			return NullX()
		}
		return TimeX(ts)
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return TimeX(time.UnixMilli(ms).UTC())
		}
	}
	if f, ok := toNumber(raw); ok {
		return TimeX(time.UnixMilli(int64(f)).UTC())
	}
	return NullX()
}
