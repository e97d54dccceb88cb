package fetch

import (
	"github.com/matzehuels/tabula/pkg/dsv"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/table"
)

// Mime types understood by [Decode].
const (
	MimeCSV  = "csv"
	MimeTSV  = "tsv"
	MimeJSON = "json"
)

// Decode converts body into records. JSON bodies go through
// [pivot.JSON] with keys, "tsv" bodies are tab-delimited and "csv" or an
// empty mime type selects comma-delimited text.
func Decode(body []byte, mimeType string, keys *pivot.Keys) (table.Dataset, error) {
	if err := errors.ValidateMimeType(mimeType); err != nil {
		return table.Dataset{}, err
	}
	switch mimeType {
	case MimeJSON:
		return pivot.JSON(body, keys)
	case MimeTSV:
		return dsv.Parse(string(body), dsv.Tab)
	default:
		return dsv.Parse(string(body), dsv.Comma)
	}
}
