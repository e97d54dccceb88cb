// Package table defines the normalized record shape shared by every input
// path of tabula.
//
// Delimited text, JSON documents and in-memory rows or columns are all
// converted into a [Dataset]: an ordered list of field names plus one
// [Record] per data row. A Record maps a field name to a scalar, nil (an
// explicit null) or a slice. A field that is not a key of the Record is
// absent, which is different from being null: absent cells are dropped from
// series, null cells are kept as gaps.
package table

// Record maps a field name to its cell value for one row.
type Record map[string]any

// Lookup returns the cell for field and whether the field is present.
func (r Record) Lookup(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// Dataset is an ordered collection of records.
//
// Fields lists the field names of the first record in input order; it is the
// order in which series are discovered. Records may lack some of the fields.
type Dataset struct {
	Fields  []string
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset has no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// Column returns the cells of field in record order. Records lacking the
// field contribute nothing, so the result may be shorter than Len.
func (d Dataset) Column(field string) []any {
	out := make([]any, 0, len(d.Records))
	for _, r := range d.Records {
		if v, ok := r[field]; ok {
			out = append(out, v)
		}
	}
	return out
}

type missing struct{}

func (missing) String() string { return "<missing>" }

// Missing marks a cell that has no value at all. The pivot functions reject
// it; use nil for an explicit null.
var Missing any = missing{}

// IsMissing reports whether v is the [Missing] placeholder.
func IsMissing(v any) bool {
	_, ok := v.(missing)
	return ok
}
