package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/series"
	"github.com/matzehuels/tabula/pkg/table"
)

func builtStore(t *testing.T) *series.Store {
	t.Helper()
	store := series.NewStore()
	_, err := series.NewBuilder(store, series.Options{
		X:     "day",
		XType: series.XTypeCategory,
		Types: map[string]string{"sales": "bar"},
	}).Build(table.Dataset{
		Fields: []string{"day", "sales"},
		Records: []table.Record{
			{"day": "Mon", "sales": 30.0},
			{"day": "Tue", "sales": nil},
		},
	}, false)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return store
}

func TestJSONRoundTrip(t *testing.T) {
	want := FromStore(builtStore(t))

	path := filepath.Join(t.TempDir(), "series.json")
	if err := ExportJSON(want, path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(Series{}, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"targets": []`) {
		t.Errorf("empty series should encode an empty array, got %s", buf.String())
	}
}

func TestReadJSONRepairs(t *testing.T) {
	in := `{"targets": [{"id": "a", "values": [
		{"x": "2024-01-02T00:00:00Z", "value": {"high": 5, "low": 1}},
		{"x": null, "value": [1, 2], "index": 9}
	]}]}`

	got, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	want := series.Target{
		ID:    "a",
		IDOrg: "a",
		Values: []series.Point{
			{X: series.TimeX(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), Value: series.RangeValue(series.Range{High: 5, Low: 1}), ID: "a", Index: 0},
			{X: series.NullX(), Value: series.Array([]any{1.0, 2.0}), ID: "a", Index: 1},
		},
	}
	if diff := cmp.Diff(want, got.Targets[0]); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"targets": [`},
		{"missing id", `{"targets": [{"values": []}]}`},
		{"duplicate id_org", `{"targets": [{"id": "a"}, {"id": "b", "id_org": "a"}]}`},
		{"bad x", `{"targets": [{"id": "a", "values": [{"x": true}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.in)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(builtStore(t).Targets(), &buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	want := "id,id_org,index,x,value\nsales,sales,0,0,30\nsales,sales,1,1,\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
