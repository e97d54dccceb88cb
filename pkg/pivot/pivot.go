// Package pivot converts row-oriented and column-oriented input into
// field-keyed records.
//
// Both forms share one rule: every cell after the header must be present.
// A short row or a [table.Missing] cell aborts the conversion with a
// *errors.MalformedDataError carrying the (row, column) position.
//
//	rows := [][]any{{"x", "a"}, {1, 10}, {2, 20}}
//	cols := [][]any{{"x", 1, 2}, {"a", 10, 20}}
//	// Rows(rows) and Columns(cols) both yield [{x:1,a:10}, {x:2,a:20}]
package pivot

import (
	"fmt"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/table"
)

// Rows converts rows whose first row holds the field names. Each following
// row becomes one record; cells past the header width are ignored.
func Rows(rows [][]any) (table.Dataset, error) {
	if len(rows) == 0 {
		return table.Dataset{}, nil
	}

	keys := fieldNames(rows[0])
	records := make([]table.Record, 0, len(rows)-1)

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rec := make(table.Record, len(keys))
		for j, key := range keys {
			if j >= len(row) || table.IsMissing(row[j]) {
				return table.Dataset{}, &errors.MalformedDataError{Row: i, Column: j}
			}
			rec[key] = row[j]
		}
		records = append(records, rec)
	}

	return table.Dataset{Fields: uniq(keys), Records: records}, nil
}

// Columns converts columns whose first element is the field name. The j-th
// value of every column lands in record j; records are allocated as columns
// reach them, so a short column simply leaves its field absent from the
// trailing records.
func Columns(columns [][]any) (table.Dataset, error) {
	var records []table.Record
	var order []string

	for i, col := range columns {
		if len(col) == 0 {
			continue
		}
		key := fieldName(col[0])
		order = append(order, key)

		for j := 1; j < len(col); j++ {
			if len(records) < j {
				records = append(records, table.Record{})
			}
			if table.IsMissing(col[j]) {
				return table.Dataset{}, &errors.MalformedDataError{Row: i, Column: j}
			}
			records[j-1][key] = col[j]
		}
	}

	if len(records) == 0 {
		return table.Dataset{}, nil
	}

	var fields []string
	for _, key := range uniq(order) {
		if _, ok := records[0][key]; ok {
			fields = append(fields, key)
		}
	}
	return table.Dataset{Fields: fields, Records: records}, nil
}

func fieldNames(header []any) []string {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = fieldName(h)
	}
	return keys
}

func fieldName(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func uniq(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
