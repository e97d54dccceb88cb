package series

import (
	"sort"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/table"
)

// Builder converts datasets into targets against a shared [Store].
// A Builder is not safe for concurrent use.
type Builder struct {
	store *Store
	opts  Options
}

// NewBuilder returns a builder writing to store. A nil store gets a fresh one.
func NewBuilder(store *Store, opts Options) *Builder {
	if store == nil {
		store = NewStore()
	}
	return &Builder{store: store, opts: opts}
}

// Store returns the store the builder writes to.
func (b *Builder) Store() *Store { return b.store }

// Options returns the build options.
func (b *Builder) Options() Options { return b.opts }

// Build converts ds into targets in series discovery order. With appendXs,
// x-values read from the input extend the series' known x-values instead of
// replacing them and the category registry carries over from earlier
// builds.
//
// Build returns a *errors.UndefinedXError when a series has no x source.
func (b *Builder) Build(ds table.Dataset, appendXs bool) ([]Target, error) {
	if err := b.opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "build options")
	}
	if ds.Empty() {
		return nil, nil
	}

	ids, xFields := b.discover(ds)
	st := b.store.stage()

	for _, id := range ids {
		b.resolveXs(st, ds, id, xFields, appendXs)
	}
	for _, id := range ids {
		if _, ok := st.getXs(id); !ok {
			return nil, &errors.UndefinedXError{ID: id}
		}
	}

	cats := b.registry(appendXs)
	targets := make([]Target, len(ids))
	for n, id := range ids {
		var acc *Categories
		if n == 0 {
			acc = cats
		}
		targets[n] = Target{
			ID:     b.opts.ConvertID(id),
			IDOrg:  id,
			Values: b.points(st, ds, id, acc),
		}
	}
	if cats != nil {
		st.categories = cats
	}

	for i := range targets {
		t := &targets[i]
		if b.opts.XSort {
			SortPoints(t.Values)
		}
		for j := range t.Values {
			t.Values[j].Index = j
		}
		st.sortXs(t.IDOrg)
	}

	hasNeg, hasPos := signs(targets)

	for id, typ := range b.opts.Types {
		st.types[id] = typ
	}
	if b.opts.DefaultType != "" {
		for _, t := range targets {
			if _, explicit := b.opts.Types[t.ID]; !explicit {
				st.types[t.ID] = b.opts.DefaultType
			}
		}
	}

	st.commit(targets, hasNeg, hasPos)
	return targets, nil
}

// discover splits the fields of the first record into series ids and x
// fields, keeping input order.
func (b *Builder) discover(ds table.Dataset) (ids, xFields []string) {
	first := ds.Records[0]
	for _, f := range ds.Fields {
		if _, ok := first[f]; !ok {
			continue
		}
		if b.opts.IsX(f) {
			xFields = append(xFields, f)
		} else {
			ids = append(ids, f)
		}
	}
	return ids, xFields
}

// resolveXs records the x-values of series id in the stage, if any source
// applies.
func (b *Builder) resolveXs(st *stage, ds table.Dataset, id string, xFields []string, appendXs bool) {
	if !b.opts.IsCustomX() && !b.opts.IsTimeSeries() {
		xs := make([]X, ds.Len())
		for i := range xs {
			xs[i] = NumberX(float64(i))
		}
		st.setXs(id, xs)
		return
	}

	xKey := b.opts.XKey(id)
	switch {
	case xKey != "" && contains(xFields, xKey):
		var xs []X
		if appendXs {
			if prev, ok := st.getXs(id); ok {
				xs = append(xs, prev...)
			}
		}
		i := 0
		for _, rec := range ds.Records {
			raw, ok := rec[xKey]
			if !ok || !isValue(raw) {
				continue
			}
			xs = append(xs, b.generateX(st, raw, true, id, i))
			i++
		}
		st.setXs(id, xs)
	case b.opts.X != "":
		if other, ok := st.otherXs(); ok {
			st.setXs(id, append([]X(nil), other...))
		}
	case len(b.opts.Xs) > 0:
		if found, ok := st.xsOfXKey(xKey, b.opts); ok {
			st.setXs(id, append([]X(nil), found...))
		}
	}
}

// registry returns the category accumulator for this build, or nil when
// raw x labels are not categorized.
func (b *Builder) registry(appendXs bool) *Categories {
	if !b.opts.IsCustomX() || !b.opts.IsCategorized() {
		return nil
	}
	if appendXs {
		return b.store.categories.clone()
	}
	return NewCategories(b.opts.Categories...)
}

// points builds the entries of series id. When cats is non-nil, raw x
// labels are registered in it and their positions become the x.
func (b *Builder) points(st *stage, ds table.Dataset, id string, cats *Categories) []Point {
	xKey := b.opts.XKey(id)
	xs, _ := st.getXs(id)
	convID := b.opts.ConvertID(id)

	points := make([]Point, 0, ds.Len())
	for i, rec := range ds.Records {
		raw, rawOK := lookup(rec, xKey)

		var x X
		if cats != nil && rawOK {
			x = NumberX(float64(cats.Position(categoryLabel(raw))))
		} else {
			x = b.generateX(st, raw, rawOK, id, i)
		}

		cell, ok := rec[id]
		if !ok || len(xs) <= i {
			continue
		}
		points = append(points, Point{X: x, Value: Coerce(cell), ID: convID})
	}
	return points
}

// SortPoints stable-sorts points by x ascending. Null x sorts last; zero is
// an ordinary value.
func SortPoints(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].X.Float() < points[j].X.Float()
	})
}

func signs(targets []Target) (negative, positive bool) {
	for _, t := range targets {
		for _, p := range t.Values {
			negative = negative || p.Value.Negative()
			positive = positive || p.Value.Positive()
		}
	}
	return negative, positive
}

func lookup(rec table.Record, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	return rec.Lookup(key)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
