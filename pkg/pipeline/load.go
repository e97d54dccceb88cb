package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/fetch"
	"github.com/matzehuels/tabula/pkg/observability"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/table"
)

// LoadWithCacheInfo produces the records of the configured source and
// reports which stages were served from the cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (table.Dataset, CacheInfo, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return table.Dataset{}, CacheInfo{}, err
	}

	var info CacheInfo
	switch opts.SourceKind() {
	case SourceURL:
		body, hit, err := r.fetchBody(ctx, opts)
		if err != nil {
			return table.Dataset{}, info, err
		}
		info.SourceHit = hit
		ds, dsHit, err := r.decode(ctx, body, opts)
		info.DatasetHit = dsHit
		return ds, info, err

	case SourcePath:
		body, err := os.ReadFile(opts.Path)
		if err != nil {
			return table.Dataset{}, info, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", opts.Path)
		}
		ds, dsHit, err := r.decode(ctx, body, opts)
		info.DatasetHit = dsHit
		return ds, info, err

	case SourceText:
		ds, dsHit, err := r.decode(ctx, []byte(opts.Text), opts)
		info.DatasetHit = dsHit
		return ds, info, err

	case SourceJSON:
		ds, err := r.parse(ctx, fetch.MimeJSON, func() (table.Dataset, error) {
			return pivot.JSON(opts.JSON, opts.Keys)
		})
		return ds, info, err

	case SourceRows:
		ds, err := r.parse(ctx, SourceRows, func() (table.Dataset, error) {
			return pivot.Rows(opts.Rows)
		})
		return ds, info, err

	case SourceColumns:
		ds, err := r.parse(ctx, SourceColumns, func() (table.Dataset, error) {
			return pivot.Columns(opts.Columns)
		})
		return ds, info, err
	}
	return table.Dataset{}, info, errors.New(errors.ErrCodeInvalidInput, "no source configured")
}

// Load is LoadWithCacheInfo without the cache info.
func (r *Runner) Load(ctx context.Context, opts Options) (table.Dataset, error) {
	ds, _, err := r.LoadWithCacheInfo(ctx, opts)
	return ds, err
}

func (r *Runner) fetchBody(ctx context.Context, opts Options) ([]byte, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, opts.URL)
	start := time.Now()

	res, err := r.Fetcher.Fetch(ctx, opts.URL, opts.Headers, opts.Refresh)
	hooks.OnFetchComplete(ctx, opts.URL, len(res.Body), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if res.CacheHit {
		observability.Cache().OnCacheHit(ctx, "source")
		opts.Logger.Debug("source cache hit", "url", opts.URL)
	} else {
		observability.Cache().OnCacheMiss(ctx, "source")
		opts.Logger.Debug("fetched source", "url", opts.URL, "bytes", len(res.Body), "duration", time.Since(start))
	}
	return res.Body, res.CacheHit, nil
}

// decode parses a text body, consulting the dataset cache first. Dataset
// keys hash the body, so a changed body never reuses stale records.
func (r *Runner) decode(ctx context.Context, body []byte, opts Options) (table.Dataset, bool, error) {
	keyOpts := cache.DatasetKeyOpts{MimeType: opts.MimeType}
	if opts.Keys != nil {
		keyOpts.KeyX = opts.Keys.X
		keyOpts.KeyValue = opts.Keys.Value
	}
	key := r.Keyer.DatasetKey(cache.Hash(body), keyOpts)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var ds table.Dataset
			if err := json.Unmarshal(data, &ds); err == nil {
				observability.Cache().OnCacheHit(ctx, "dataset")
				opts.Logger.Debug("dataset cache hit", "records", ds.Len())
				return ds, true, nil
			}
			// Undecodable entry: fall through and reparse.
		}
		observability.Cache().OnCacheMiss(ctx, "dataset")
	}

	ds, err := r.parse(ctx, opts.MimeType, func() (table.Dataset, error) {
		return fetch.Decode(body, opts.MimeType, opts.Keys)
	})
	if err != nil {
		return table.Dataset{}, false, err
	}

	if data, err := json.Marshal(ds); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDataset); err == nil {
			observability.Cache().OnCacheSet(ctx, "dataset", len(data))
		} else {
			opts.Logger.Warn("dataset cache write failed", "error", err)
		}
	}
	return ds, false, nil
}

func (r *Runner) parse(ctx context.Context, kind string, fn func() (table.Dataset, error)) (table.Dataset, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, kind)
	start := time.Now()
	ds, err := fn()
	hooks.OnParseComplete(ctx, kind, ds.Len(), time.Since(start), err)
	return ds, err
}
