package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tabula/pkg/errors"
)

// ReadJSON decodes a series file from r.
//
// Every target must have an id; id_org defaults to the id and must be
// unique. Points without an id take their target's id, and indexes are
// renumbered to match point positions.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (Series, error) {
	var s Series
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Series{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode series")
	}

	seen := make(map[string]bool, len(s.Targets))
	for i := range s.Targets {
		t := &s.Targets[i]
		if t.ID == "" {
			return Series{}, errors.New(errors.ErrCodeInvalidFormat, "target %d: missing id", i)
		}
		if t.IDOrg == "" {
			t.IDOrg = t.ID
		}
		if seen[t.IDOrg] {
			return Series{}, errors.New(errors.ErrCodeInvalidFormat, "target %s: duplicate id_org", t.IDOrg)
		}
		seen[t.IDOrg] = true
		for j := range t.Values {
			if t.Values[j].ID == "" {
				t.Values[j].ID = t.ID
			}
			t.Values[j].Index = j
		}
	}
	return s, nil
}

// ImportJSON reads a series file at path.
func ImportJSON(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
