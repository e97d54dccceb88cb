package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tabula/pkg/config"
	tio "github.com/matzehuels/tabula/pkg/io"
	"github.com/matzehuels/tabula/pkg/pipeline"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/series"
)

// Output formats of the convert command.
const (
	formatJSON  = "json"
	formatCSV   = "csv"
	formatTable = "table"
)

// buildFlags holds the flags shared by convert and view.
type buildFlags struct {
	mimeType    string
	headers     map[string]string
	keysX       string
	keysValue   []string
	x           string
	xs          map[string]string
	xType       string
	xFormat     string
	xSort       bool
	categories  []string
	types       map[string]string
	defaultType string
	idConverter string
	appendXs    bool
	refresh     bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.mimeType, "mime", "", "source type: csv, tsv or json (default: from extension, else csv)")
	fl.StringToStringVarP(&f.headers, "header", "H", nil, "request header for URL sources (name=value)")
	fl.StringVar(&f.keysX, "keys-x", "", "JSON key path of the shared x field")
	fl.StringSliceVar(&f.keysValue, "keys-value", nil, "JSON key paths of the series (array of objects input)")
	fl.StringVar(&f.x, "x", "", "field supplying x-values for every series")
	fl.StringToStringVar(&f.xs, "xs", nil, "per-series x field (series=field)")
	fl.StringVar(&f.xType, "x-type", "", "x semantics: indexed, category or timeseries")
	fl.StringVar(&f.xFormat, "x-format", "", "Go time layout of time-series x strings")
	fl.BoolVar(&f.xSort, "x-sort", false, "sort each series by x")
	fl.StringSliceVar(&f.categories, "categories", nil, "seed the category registry")
	fl.StringToStringVar(&f.types, "type", nil, "series type (id=type)")
	fl.StringVar(&f.defaultType, "default-type", "", "type of series without an explicit type")
	fl.StringVar(&f.idConverter, "id-converter", "", "id conversion: identity, lower, upper, trim or snake")
	fl.BoolVar(&f.appendXs, "append", false, "extend the x-values of earlier sources instead of replacing them")
	fl.BoolVar(&f.refresh, "refresh", false, "bypass the source cache")
}

// options builds pipeline options for one source argument: a URL, a file
// path, or "-" for standard input.
func (f *buildFlags) options(source string, stdin io.Reader) (pipeline.Options, error) {
	opts := pipeline.Options{
		MimeType:    f.mimeType,
		Refresh:     f.refresh,
		IDConverter: f.idConverter,
		Series: series.Options{
			X:           f.x,
			Xs:          f.xs,
			XType:       series.XType(f.xType),
			XFormat:     f.xFormat,
			XSort:       f.xSort,
			Categories:  f.categories,
			DefaultType: f.defaultType,
			Types:       f.types,
		},
	}
	if len(f.keysValue) > 0 || f.keysX != "" {
		opts.Keys = &pivot.Keys{X: f.keysX, Value: f.keysValue}
	}

	switch {
	case source == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return opts, fmt.Errorf("read stdin: %w", err)
		}
		if opts.MimeType == "json" || (opts.MimeType == "" && opts.Keys != nil) {
			opts.JSON = data
		} else {
			opts.Text = string(data)
		}
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		opts.URL = source
		opts.Headers = f.headers
	default:
		opts.Path = source
	}
	return opts, nil
}

// runSources converts every source into one runner, in order. The second
// and later sources append when --append is set.
func (c *CLI) runSources(ctx context.Context, cfg config.Config, r *pipeline.Runner, f *buildFlags, sources []string) ([]*pipeline.Result, error) {
	results := make([]*pipeline.Result, 0, len(sources))
	for i, src := range sources {
		opts, err := f.options(src, os.Stdin)
		if err != nil {
			return nil, err
		}
		opts.Append = f.appendXs && i > 0
		cfg.Apply(&opts)

		sp := sourceSpinner(ctx, c.status, src, i, len(sources))
		sp.Start()
		res, err := r.Execute(ctx, opts)
		if err != nil {
			sp.Fail(src, err)
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		sp.Succeed("%s: %d series, %d points", src, res.Stats.Series, res.Stats.Points)
		results = append(results, res)
	}
	return results, nil
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		flags     buildFlags
		format    string
		output    string
		doArchive bool
	)

	cmd := &cobra.Command{
		Use:   "convert SOURCE...",
		Short: "Convert tabular sources into target series",
		Long: `Convert loads each SOURCE (a URL, a file, or - for standard input) and
builds target series from it. Sources are converted in order into one store;
the store's series are printed as JSON (default), CSV or a table.`,
		Example: `  tabula convert sales.csv --x month --x-type category
  tabula convert https://example.com/data.json --keys-value upload,download --keys-x name
  cat data.tsv | tabula convert - --mime tsv --format table`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatJSON, formatCSV, formatTable:
			default:
				return fmt.Errorf("invalid format: %s (must be one of: json, csv, table)", format)
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			if doArchive {
				a, err := c.connectArchive(ctx, cfg)
				if err != nil {
					return err
				}
				defer a.Close(context.Background())
				runner.Archive = a
			}

			prog := newProgress(logger)
			results, err := c.runSources(ctx, cfg, runner, &flags, args)
			if err != nil {
				return err
			}
			for _, res := range results {
				if doArchive {
					logger.Info("archived build", "build", res.BuildID.String(), "series", len(res.Targets))
				}
			}
			prog.done(fmt.Sprintf("Converted %d source(s)", len(results)))

			w := c.out
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			out := tio.FromStore(runner.Store)
			switch format {
			case formatCSV:
				err = tio.WriteCSV(out.Targets, w)
			case formatTable:
				printStats(results[len(results)-1])
				_, err = fmt.Fprintln(w, renderTargetsTable(out.Targets))
			default:
				err = tio.WriteJSON(out, w)
			}
			if err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote %d series", len(out.Targets))
				printFile(output)
				printNextStep("Browse them", "tabula view --import "+output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, csv or table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of standard output")
	cmd.Flags().BoolVar(&doArchive, "archive", false, "archive the built series in MongoDB")

	return cmd
}
