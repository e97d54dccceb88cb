package pivot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/jsonpath"
	"github.com/matzehuels/tabula/pkg/table"
)

// Keys selects fields out of an array of JSON objects.
//
// Value lists one key path per series; X, when set, is the key path of the
// shared x field. Paths use the [jsonpath] syntax.
type Keys struct {
	X     string   `json:"x,omitempty" toml:"x"`
	Value []string `json:"value" toml:"value"`
}

// Fields returns the value paths followed by the x path, if any.
func (k Keys) Fields() []string {
	fields := append([]string(nil), k.Value...)
	if k.X != "" {
		fields = append(fields, k.X)
	}
	return fields
}

// JSON converts a JSON document into records.
//
// With keys, data must be an array of objects; each object becomes one row
// whose cells are resolved from the key paths. Paths that do not resolve
// yield nil, so the cell is a null gap rather than an absent value.
//
// Without keys, data must be an object of arrays; each member becomes one
// column named after its key, in document order.
func JSON(data []byte, keys *Keys) (table.Dataset, error) {
	if keys != nil {
		return jsonRows(data, *keys)
	}
	return jsonColumns(data)
}

func jsonRows(data []byte, keys Keys) (table.Dataset, error) {
	var objects []any
	if err := json.Unmarshal(data, &objects); err != nil {
		return table.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "json with keys must be an array of objects")
	}

	fields := keys.Fields()
	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f
	}

	rows := make([][]any, 0, len(objects)+1)
	rows = append(rows, header)
	for _, o := range objects {
		row := make([]any, len(fields))
		for i, path := range fields {
			if v, ok := jsonpath.Resolve(o, path); ok {
				row[i] = v
			}
		}
		rows = append(rows, row)
	}
	return Rows(rows)
}

// jsonColumns decodes the top-level object member by member to keep the
// document's key order.
func jsonColumns(data []byte) (table.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return table.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return table.Dataset{}, errors.New(errors.ErrCodeInvalidFormat, "json without keys must be an object of arrays")
	}

	var columns [][]any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return table.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
		key, ok := tok.(string)
		if !ok {
			return table.Dataset{}, errors.New(errors.ErrCodeInvalidFormat, "unexpected token %v", tok)
		}

		var values []any
		if err := dec.Decode(&values); err != nil {
			return table.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "member %q must be an array", key)
		}
		columns = append(columns, append([]any{key}, values...))
	}

	tok, err = dec.Token()
	if err != nil {
		return table.Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	if d, ok := tok.(json.Delim); !ok || d != '}' {
		return table.Dataset{}, errors.New(errors.ErrCodeInvalidFormat, "unterminated json object")
	}

	ds, err := Columns(columns)
	if err != nil {
		return table.Dataset{}, fmt.Errorf("columns: %w", err)
	}
	return ds, nil
}
