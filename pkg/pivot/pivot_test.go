package pivot

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/table"
)

func TestRowsAndColumnsAgree(t *testing.T) {
	rows := [][]any{{"x", "a"}, {1, 10}, {2, 20}}
	cols := [][]any{{"x", 1, 2}, {"a", 10, 20}}

	fromRows, err := Rows(rows)
	if err != nil {
		t.Fatalf("Rows() error: %v", err)
	}
	fromCols, err := Columns(cols)
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}

	want := table.Dataset{
		Fields: []string{"x", "a"},
		Records: []table.Record{
			{"x": 1, "a": 10},
			{"x": 2, "a": 20},
		},
	}
	if diff := cmp.Diff(want, fromRows); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, fromCols); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestRowsMissingCell(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]any
		wantRow int
		wantCol int
	}{
		{
			name:    "short row",
			rows:    [][]any{{"x", "a", "b"}, {1, 10, 100}, {2, 20}},
			wantRow: 2,
			wantCol: 2,
		},
		{
			name:    "missing placeholder",
			rows:    [][]any{{"x", "a"}, {1, table.Missing}},
			wantRow: 1,
			wantCol: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rows(tt.rows)
			var mErr *errors.MalformedDataError
			if !stderrors.As(err, &mErr) {
				t.Fatalf("Rows() error = %v, want MalformedDataError", err)
			}
			if mErr.Row != tt.wantRow || mErr.Column != tt.wantCol {
				t.Errorf("position = (%d, %d), want (%d, %d)", mErr.Row, mErr.Column, tt.wantRow, tt.wantCol)
			}
			if !errors.Is(err, errors.ErrCodeMalformedTabularData) {
				t.Errorf("code = %v", errors.GetCode(err))
			}
		})
	}
}

func TestRowsKeepsNull(t *testing.T) {
	ds, err := Rows([][]any{{"a"}, {nil}})
	if err != nil {
		t.Fatalf("Rows() error: %v", err)
	}
	v, ok := ds.Records[0].Lookup("a")
	if !ok || v != nil {
		t.Errorf("Lookup(a) = %v, %v; want nil, true", v, ok)
	}
}

func TestColumnsMissingCell(t *testing.T) {
	_, err := Columns([][]any{{"x", 1, 2}, {"a", 10, table.Missing}})
	var mErr *errors.MalformedDataError
	if !stderrors.As(err, &mErr) {
		t.Fatalf("Columns() error = %v, want MalformedDataError", err)
	}
	if mErr.Row != 1 || mErr.Column != 2 {
		t.Errorf("position = (%d, %d), want (1, 2)", mErr.Row, mErr.Column)
	}
}

func TestColumnsUneven(t *testing.T) {
	ds, err := Columns([][]any{{"x", 1, 2, 3}, {"a", 10}})
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}
	want := table.Dataset{
		Fields: []string{"x", "a"},
		Records: []table.Record{
			{"x": 1, "a": 10},
			{"x": 2},
			{"x": 3},
		},
	}
	if diff := cmp.Diff(want, ds); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	if ds, err := Rows(nil); err != nil || !ds.Empty() {
		t.Errorf("Rows(nil) = %v, %v", ds, err)
	}
	if ds, err := Columns(nil); err != nil || !ds.Empty() {
		t.Errorf("Columns(nil) = %v, %v", ds, err)
	}
	if ds, err := Rows([][]any{{"a", "b"}}); err != nil || !ds.Empty() {
		t.Errorf("Rows(header only) = %v, %v", ds, err)
	}
}
