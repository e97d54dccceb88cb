package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/fetch"
	"github.com/matzehuels/tabula/pkg/observability"
	"github.com/matzehuels/tabula/pkg/series"
	"github.com/matzehuels/tabula/pkg/table"
)

// Archiver persists the targets of a finished build.
type Archiver interface {
	SaveTargets(ctx context.Context, buildID uuid.UUID, targets []series.Target) error
}

// Runner executes the pipeline against one [series.Store]. Both the CLI and
// the API use it.
//
// The store is shared state: a Runner must not be used by several
// goroutines at once. Callers serving concurrent requests serialize access.
type Runner struct {
	Store   *series.Store
	Fetcher *fetch.Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Archive Archiver // optional
	Logger  *log.Logger
}

// NewRunner creates a runner with an empty store.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:   series.NewStore(),
		Fetcher: fetch.New(c, keyer, fetch.Options{}),
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// Execute runs load and build, then archives the targets when requested.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{BuildID: uuid.New()}
	logger := opts.Logger.With("build", result.BuildID.String()[:8])

	// Stage 1: Load
	loadStart := time.Now()
	ds, info, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Records = ds.Len()
	result.CacheInfo = info

	logger.Info("loaded records",
		"source", opts.SourceKind(),
		"records", ds.Len(),
		"fields", len(ds.Fields),
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	targets, err := r.Build(ctx, ds, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = time.Since(buildStart)
	result.Targets = targets
	result.Stats.Series = len(targets)
	result.Stats.Points = countPoints(targets)

	result.Xs = r.Store.AllXs()
	result.Categories = r.Store.Categories()
	result.Types = r.Store.Types()
	result.HasNegative = r.Store.HasNegative()
	result.HasPositive = r.Store.HasPositive()

	logger.Info("built targets",
		"series", result.Stats.Series,
		"points", result.Stats.Points,
		"duration", result.Stats.BuildTime)

	if opts.Archive {
		if r.Archive == nil {
			logger.Warn("archive requested but no archive is configured")
		} else if err := r.Archive.SaveTargets(ctx, result.BuildID, targets); err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		} else {
			logger.Debug("archived targets", "series", len(targets))
		}
	}

	return result, nil
}

// Build converts records into targets against the runner's store. On error
// the store is unchanged.
func (r *Runner) Build(ctx context.Context, ds table.Dataset, opts Options) ([]series.Target, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, len(ds.Fields))
	start := time.Now()

	targets, err := series.NewBuilder(r.Store, opts.Series).Build(ds, opts.Append)
	hooks.OnBuildComplete(ctx, len(targets), countPoints(targets), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	for _, t := range targets {
		opts.Logger.Debug("series", "id", t.ID, "id_org", t.IDOrg, "points", t.Len())
	}
	return targets, nil
}

// Unload removes series from the store by original field name.
func (r *Runner) Unload(idOrgs ...string) {
	r.Store.Unload(idOrgs...)
	r.Logger.Debug("unloaded series", "ids", idOrgs)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func countPoints(targets []series.Target) int {
	n := 0
	for _, t := range targets {
		n += t.Len()
	}
	return n
}
