package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/tabula/pkg/series"
)

// Series is the content of a series file.
type Series struct {
	Targets    []series.Target   `json:"targets"`
	Categories []string          `json:"categories,omitempty"`
	Types      map[string]string `json:"types,omitempty"`
}

// FromStore captures the current content of store.
func FromStore(store *series.Store) Series {
	return Series{
		Targets:    store.Targets(),
		Categories: store.Categories(),
		Types:      store.Types(),
	}
}

// WriteJSON encodes s as indented JSON and writes it to w.
func WriteJSON(s Series, w io.Writer) error {
	if s.Targets == nil {
		s.Targets = []series.Target{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes s to a JSON file at path.
func ExportJSON(s Series, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}

// csvHeader is the header row written by [WriteCSV].
var csvHeader = []string{"id", "id_org", "index", "x", "value"}

// WriteCSV writes targets in long form, one row per point.
func WriteCSV(targets []series.Target, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range targets {
		for _, p := range t.Values {
			row := []string{t.ID, t.IDOrg, strconv.Itoa(p.Index), cell(p.X.String(), p.X.IsNull()), cell(p.Value.String(), p.Value.IsNull())}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write %s: %w", t.ID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(s string, null bool) string {
	if null {
		return ""
	}
	return s
}
