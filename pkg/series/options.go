package series

import (
	"fmt"
	"strings"
	"unicode"
)

// XType selects how x-values are interpreted.
type XType string

const (
	// XTypeIndexed uses record positions unless x keys are configured.
	XTypeIndexed XType = "indexed"
	// XTypeCategory maps raw x labels to positions in a category registry.
	XTypeCategory XType = "category"
	// XTypeTimeseries parses raw x into times.
	XTypeTimeseries XType = "timeseries"
)

// DefaultXFormat is the layout used to parse time-series x strings.
const DefaultXFormat = "2006-01-02"

// Options configures a build. The zero value builds index-based series with
// the identity id conversion.
type Options struct {
	// X is the field supplying x-values for every series.
	X string `json:"x,omitempty"`
	// Xs maps a series id to the field supplying its x-values. Ignored for a
	// series when X is set.
	Xs map[string]string `json:"xs,omitempty"`
	// XType selects indexed, category or timeseries semantics.
	XType XType `json:"x_type,omitempty"`
	// XFormat is the time layout for time-series x strings.
	XFormat string `json:"x_format,omitempty"`
	// XSort sorts each series by x.
	XSort bool `json:"x_sort,omitempty"`
	// Categories seeds the category registry of a fresh build.
	Categories []string `json:"categories,omitempty"`
	// DefaultType is applied to every series without an explicit type.
	DefaultType string `json:"default_type,omitempty"`
	// Types holds explicit per-series types keyed by converted id.
	Types map[string]string `json:"types,omitempty"`
	// IDConverter maps a field name to the public series id.
	IDConverter func(string) string `json:"-"`
}

// IsTimeSeries reports whether x-values are times.
func (o Options) IsTimeSeries() bool { return o.XType == XTypeTimeseries }

// IsCategorized reports whether x-values are category positions.
func (o Options) IsCategorized() bool { return o.XType == XTypeCategory }

// IsCustomX reports whether x-values come from configured fields rather than
// record positions.
func (o Options) IsCustomX() bool {
	return !o.IsTimeSeries() && (o.X != "" || len(o.Xs) > 0)
}

// XKey returns the field supplying x-values for id, or "" when none is
// configured.
func (o Options) XKey(id string) string {
	if o.X != "" {
		return o.X
	}
	return o.Xs[id]
}

// IsX reports whether field supplies x-values for some series.
func (o Options) IsX(field string) bool {
	if o.X != "" && field == o.X {
		return true
	}
	for _, k := range o.Xs {
		if k == field {
			return true
		}
	}
	return false
}

// ConvertID applies the id converter.
func (o Options) ConvertID(id string) string {
	if o.IDConverter == nil {
		return id
	}
	return o.IDConverter(id)
}

func (o Options) xFormat() string {
	if o.XFormat == "" {
		return DefaultXFormat
	}
	return o.XFormat
}

// Validate checks option consistency.
func (o Options) Validate() error {
	switch o.XType {
	case "", XTypeIndexed, XTypeCategory, XTypeTimeseries:
	default:
		return fmt.Errorf("invalid x type: %q (must be one of: indexed, category, timeseries)", o.XType)
	}
	return nil
}

// =============================================================================
// ID converters
// =============================================================================

// IDConverters are the id conversions selectable by name in configuration.
var IDConverters = map[string]func(string) string{
	"identity": func(s string) string { return s },
	"lower":    strings.ToLower,
	"upper":    strings.ToUpper,
	"trim":     strings.TrimSpace,
	"snake":    toSnake,
}

// IDConverter returns the converter registered under name. The empty name
// selects the identity.
func IDConverter(name string) (func(string) string, error) {
	if name == "" {
		name = "identity"
	}
	fn, ok := IDConverters[name]
	if !ok {
		return nil, fmt.Errorf("unknown id converter: %q", name)
	}
	return fn, nil
}

func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '.':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
