// Package pipeline provides the conversion pipeline shared by the CLI and
// the HTTP API.
//
// # Architecture
//
// A run has two stages:
//
//  1. Load: obtain records from the source, one of a URL (fetched with
//     headers), a local file, inline delimited or JSON text, in-memory rows
//     or in-memory columns
//  2. Build: turn the records into target series against the runner's
//     [series.Store]
//
// Fetched bodies and parsed records are cached; builds are not, because
// their result depends on what earlier builds left in the store.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    URL:    "https://example.com/sales.csv",
//	    Series: series.Options{X: "month", XType: series.XTypeCategory},
//	})
//	for _, t := range result.Targets {
//	    fmt.Println(t.ID, t.Len())
//	}
package pipeline

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/fetch"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/series"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMimeType applies to text sources without an explicit type.
	DefaultMimeType = fetch.MimeCSV

	// DefaultIDConverter is the id conversion used when none is named.
	DefaultIDConverter = "identity"
)

// Source kinds reported by [Options.SourceKind].
const (
	SourceURL     = "url"
	SourcePath    = "path"
	SourceText    = "text"
	SourceRows    = "rows"
	SourceColumns = "columns"
	SourceJSON    = "json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. Exactly one source field must be
// set. The struct is the JSON body of the API's convert endpoint.
type Options struct {
	// Sources
	URL     string          `json:"url,omitempty"`
	Path    string          `json:"path,omitempty"`
	Text    string          `json:"text,omitempty"`
	Rows    [][]any         `json:"rows,omitempty"`
	Columns [][]any         `json:"columns,omitempty"`
	JSON    json.RawMessage `json:"json,omitempty"`

	// Source decoding
	MimeType string            `json:"mime_type,omitempty"` // csv, tsv or json
	Headers  map[string]string `json:"headers,omitempty"`   // request headers for URL sources
	Keys     *pivot.Keys       `json:"keys,omitempty"`      // key paths for JSON arrays of objects
	Refresh  bool              `json:"refresh,omitempty"`   // bypass the source cache

	// Build
	Series      series.Options `json:"series"`
	IDConverter string         `json:"id_converter,omitempty"`
	Append      bool           `json:"append,omitempty"` // extend known x-values instead of replacing them
	Archive     bool           `json:"archive,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// BuildID identifies this run in logs and in the archive.
	BuildID uuid.UUID `json:"build_id"`

	// Targets are the series built by this run, in discovery order.
	Targets []series.Target `json:"targets"`

	// Xs are the x-values of every series known to the store after the run.
	Xs map[string][]series.X `json:"xs"`

	// Categories is the category registry after the run.
	Categories []string `json:"categories,omitempty"`

	// Types are the series types after the run, keyed by converted id.
	Types map[string]string `json:"types,omitempty"`

	HasNegative bool `json:"has_negative"`
	HasPositive bool `json:"has_positive"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// Stats contains run statistics.
type Stats struct {
	Records   int           `json:"records"`
	Series    int           `json:"series"`
	Points    int           `json:"points"`
	LoadTime  time.Duration `json:"load_time"`
	BuildTime time.Duration `json:"build_time"`
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	SourceHit  bool `json:"source_hit"`  // fetched body came from cache
	DatasetHit bool `json:"dataset_hit"` // parsed records came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// SourceKind names the configured source, or "" when none is set.
func (o *Options) SourceKind() string {
	switch {
	case o.URL != "":
		return SourceURL
	case o.Path != "":
		return SourcePath
	case o.Text != "":
		return SourceText
	case o.Rows != nil:
		return SourceRows
	case o.Columns != nil:
		return SourceColumns
	case len(o.JSON) > 0:
		return SourceJSON
	}
	return ""
}

func (o *Options) sourceCount() int {
	n := 0
	for _, set := range []bool{o.URL != "", o.Path != "", o.Text != "", o.Rows != nil, o.Columns != nil, len(o.JSON) > 0} {
		if set {
			n++
		}
	}
	return n
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
//
// Defaults: the mime type follows a path's extension, else csv; JSON
// sources use json; explicit JSON keys with an x path set the shared x
// field; the id converter is the identity.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	switch o.sourceCount() {
	case 0:
		return errors.New(errors.ErrCodeInvalidInput, "a source is required (url, path, text, rows, columns or json)")
	case 1:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "only one source may be set, got %d", o.sourceCount())
	}

	switch o.SourceKind() {
	case SourceURL:
		if err := errors.ValidateURL(o.URL); err != nil {
			return err
		}
	case SourcePath:
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
		if o.MimeType == "" {
			o.MimeType = mimeFromExt(o.Path)
		}
	case SourceJSON:
		o.MimeType = fetch.MimeJSON
	}
	if o.MimeType == "" {
		o.MimeType = DefaultMimeType
	}
	if err := errors.ValidateMimeType(o.MimeType); err != nil {
		return err
	}

	if o.Keys != nil {
		if len(o.Keys.Value) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "keys.value must list at least one path")
		}
		if o.Keys.X != "" {
			o.Series.X = o.Keys.X
		}
	}

	if o.IDConverter == "" {
		o.IDConverter = DefaultIDConverter
	}
	conv, err := series.IDConverter(o.IDConverter)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "id converter")
	}
	o.Series.IDConverter = conv

	if o.Series.XType == "" {
		o.Series.XType = series.XTypeIndexed
	}
	if o.Series.XFormat == "" {
		o.Series.XFormat = series.DefaultXFormat
	}
	if err := o.Series.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "series options")
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return fetch.MimeTSV
	case ".json":
		return fetch.MimeJSON
	default:
		return fetch.MimeCSV
	}
}
