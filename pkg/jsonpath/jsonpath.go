// Package jsonpath resolves dotted and bracketed key paths against decoded
// JSON values.
//
// A path is a sequence of keys separated by dots, where array positions may
// be written either as a key or in brackets:
//
//	jsonpath.Resolve(doc, "sales.total")
//	jsonpath.Resolve(doc, "points[2].y")   // same as "points.2.y"
//	jsonpath.Resolve(doc, "[0].name")      // leading bracket on an array
//
// A key that exists literally on the object wins over path traversal, so
// flat documents with keys such as "a.b" keep working.
package jsonpath

import (
	"regexp"
	"strconv"
	"strings"
)

var bracketIndex = regexp.MustCompile(`\[(\w+)\]`)

// Resolve looks up path in object. The boolean is false when any segment of
// the path is absent; a present key holding nil returns (nil, true).
//
// object is expected to be a value produced by encoding/json: map[string]any,
// []any or a scalar.
func Resolve(object any, path string) (any, bool) {
	if v, ok := step(object, path); ok {
		return v, true
	}

	normalized := bracketIndex.ReplaceAllString(path, ".$1")
	normalized = strings.TrimPrefix(normalized, ".")

	target := object
	for _, key := range strings.Split(normalized, ".") {
		next, ok := step(target, key)
		if !ok {
			return nil, false
		}
		target = next
	}
	return target, true
}

// step descends one key into target.
func step(target any, key string) (any, bool) {
	switch t := target.(type) {
	case map[string]any:
		v, ok := t[key]
		return v, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	default:
		return nil, false
	}
}
