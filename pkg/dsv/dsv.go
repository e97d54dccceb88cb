// Package dsv parses delimiter-separated text (CSV and TSV) into records.
//
// Both formats share one shape, [Strategy]: a row splitter and a full parser
// that turns the header row into field names. [Convert] adds a single rule on
// top: a document made of the header line alone yields one record whose
// fields are all null, so the series exist even though they carry no values
// yet.
//
//	ds, err := dsv.Parse("x,data1\n1,30\n2,200\n", dsv.Comma)
//	// ds.Fields  == ["x", "data1"]
//	// ds.Records == [{x:"1", data1:"30"}, {x:"2", data1:"200"}]
//
// Cells are kept as strings; numeric coercion happens when series are built.
package dsv

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/matzehuels/tabula/pkg/table"
)

// Kind selects the delimiter.
type Kind int

const (
	// Comma separates fields with ','.
	Comma Kind = iota
	// Tab separates fields with '\t'.
	Tab
)

// String returns the mime-type style name of the kind.
func (k Kind) String() string {
	switch k {
	case Tab:
		return "tsv"
	default:
		return "csv"
	}
}

// Delimiter returns the field separator rune.
func (k Kind) Delimiter() rune {
	if k == Tab {
		return '\t'
	}
	return ','
}

// Strategy is a pair of functions implementing one delimited format.
type Strategy struct {
	// Rows splits text into rows of raw cells, header included.
	Rows func(text string) ([][]string, error)
	// Parse converts text into records keyed by the header row.
	Parse func(text string) (table.Dataset, error)
}

// CSV and TSV are the built-in strategies.
var (
	CSV = For(Comma)
	TSV = For(Tab)
)

// For returns the strategy for kind.
func For(kind Kind) Strategy {
	d := kind.Delimiter()
	return Strategy{
		Rows:  func(text string) ([][]string, error) { return readRows(text, d) },
		Parse: func(text string) (table.Dataset, error) { return parseRecords(text, d) },
	}
}

// Parse converts text of the given kind into a dataset.
func Parse(text string, kind Kind) (table.Dataset, error) {
	return Convert(For(kind), text)
}

// Convert runs strategy s over text. A single-row document produces one
// record with every header field set to nil; anything else is delegated to
// s.Parse unchanged. Errors from the strategy are returned as-is.
func Convert(s Strategy, text string) (table.Dataset, error) {
	rows, err := s.Rows(text)
	if err != nil {
		return table.Dataset{}, err
	}
	if len(rows) == 1 {
		fields := uniqueFields(rows[0])
		rec := make(table.Record, len(fields))
		for _, f := range fields {
			rec[f] = nil
		}
		return table.Dataset{Fields: fields, Records: []table.Record{rec}}, nil
	}
	return s.Parse(text)
}

func newReader(text string, delim rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false
	return r
}

func readRows(text string, delim rune) ([][]string, error) {
	rows, err := newReader(text, delim).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// parseRecords mirrors the usual object conversion of delimited text: every
// record carries every header field, short rows are padded with "", extra
// cells are ignored and the last of several same-named columns wins.
func parseRecords(text string, delim rune) (table.Dataset, error) {
	rows, err := readRows(text, delim)
	if err != nil {
		return table.Dataset{}, err
	}
	if len(rows) == 0 {
		return table.Dataset{}, nil
	}

	header := rows[0]
	fields := uniqueFields(header)
	records := make([]table.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(table.Record, len(fields))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return table.Dataset{Fields: fields, Records: records}, nil
}

func uniqueFields(header []string) []string {
	seen := make(map[string]bool, len(header))
	out := make([]string, 0, len(header))
	for _, h := range header {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
