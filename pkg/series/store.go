package series

import (
	"slices"
	"sort"
)

// Store holds the state shared across builds: the x-values of every series,
// the per-id result cache, the loaded targets, the category registry, the
// series types and the sign flags of the last build.
//
// A Store has a single writer. Builds that touch overlapping series ids or
// the same category domain must be serialized by the caller.
type Store struct {
	xs      map[string][]X
	xsOrder []string

	results map[string]Target
	targets []Target

	categories *Categories
	types      map[string]string

	hasNegative bool
	hasPositive bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		xs:         make(map[string][]X),
		results:    make(map[string]Target),
		categories: NewCategories(),
		types:      make(map[string]string),
	}
}

// Xs returns a copy of the x-values of series id (original field name).
func (s *Store) Xs(id string) ([]X, bool) {
	v, ok := s.xs[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// AllXs returns a copy of every series' x-values.
func (s *Store) AllXs() map[string][]X {
	out := make(map[string][]X, len(s.xs))
	for id, v := range s.xs {
		out[id] = slices.Clone(v)
	}
	return out
}

// Target returns the cached target built for idOrg.
func (s *Store) Target(idOrg string) (Target, bool) {
	t, ok := s.results[idOrg]
	return t, ok
}

// Targets returns the loaded targets in load order.
func (s *Store) Targets() []Target {
	return slices.Clone(s.targets)
}

// Categories returns the category labels in registry order.
func (s *Store) Categories() []string {
	return s.categories.Labels()
}

// Type returns the type assigned to a converted series id.
func (s *Store) Type(id string) (string, bool) {
	t, ok := s.types[id]
	return t, ok
}

// Types returns a copy of every assigned type.
func (s *Store) Types() map[string]string {
	out := make(map[string]string, len(s.types))
	for k, v := range s.types {
		out[k] = v
	}
	return out
}

// HasNegative reports whether the last build produced a negative value.
func (s *Store) HasNegative() bool { return s.hasNegative }

// HasPositive reports whether the last build produced a positive value.
func (s *Store) HasPositive() bool { return s.hasPositive }

// Unload removes series by original id, together with their x-values and
// cached targets. Unknown ids are ignored.
func (s *Store) Unload(idOrgs ...string) {
	drop := make(map[string]bool, len(idOrgs))
	for _, id := range idOrgs {
		drop[id] = true
		delete(s.xs, id)
		if t, ok := s.results[id]; ok {
			delete(s.types, t.ID)
		}
		delete(s.results, id)
	}
	s.xsOrder = slices.DeleteFunc(s.xsOrder, func(id string) bool { return drop[id] })
	s.targets = slices.DeleteFunc(s.targets, func(t Target) bool { return drop[t.IDOrg] })
}

// =============================================================================
// stage - per-build overlay committed only when the build succeeds
// =============================================================================

type stage struct {
	store *Store

	xs      map[string][]X
	xsOrder []string

	categories *Categories
	types      map[string]string
}

func (s *Store) stage() *stage {
	return &stage{
		store:   s,
		xs:      make(map[string][]X),
		xsOrder: slices.Clone(s.xsOrder),
		types:   make(map[string]string),
	}
}

// getXs returns the x-values of id as seen by this build.
func (st *stage) getXs(id string) ([]X, bool) {
	if v, ok := st.xs[id]; ok {
		return v, true
	}
	v, ok := st.store.xs[id]
	return v, ok
}

func (st *stage) setXs(id string, v []X) {
	if _, ok := st.getXs(id); !ok {
		st.xsOrder = append(st.xsOrder, id)
	}
	st.xs[id] = v
}

// otherXs returns the x-values of the first series holding any.
func (st *stage) otherXs() ([]X, bool) {
	if len(st.xsOrder) == 0 {
		return nil, false
	}
	return st.getXs(st.xsOrder[0])
}

// xsOfXKey returns the x-values of a loaded target that shares xKey. The
// last match in load order wins.
func (st *stage) xsOfXKey(xKey string, opts Options) ([]X, bool) {
	var found []X
	ok := false
	for _, t := range st.store.targets {
		if opts.XKey(t.IDOrg) != xKey {
			continue
		}
		if v, has := st.getXs(t.IDOrg); has {
			found, ok = v, true
		}
	}
	return found, ok
}

// sortXs sorts the x-values of id ascending on a copy.
func (st *stage) sortXs(id string) {
	v, ok := st.getXs(id)
	if !ok {
		return
	}
	sorted := slices.Clone(v)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Float() < sorted[j].Float() })
	st.xs[id] = sorted
}

func (st *stage) commit(targets []Target, hasNegative, hasPositive bool) {
	s := st.store
	for id, v := range st.xs {
		s.xs[id] = v
	}
	s.xsOrder = st.xsOrder
	if st.categories != nil {
		s.categories = st.categories
	}
	for id, typ := range st.types {
		s.types[id] = typ
	}
	for _, t := range targets {
		s.results[t.IDOrg] = t
		if i := slices.IndexFunc(s.targets, func(old Target) bool { return old.IDOrg == t.IDOrg }); i >= 0 {
			s.targets[i] = t
		} else {
			s.targets = append(s.targets, t)
		}
	}
	s.hasNegative = hasNegative
	s.hasPositive = hasPositive
}
