// Package pkg holds the libraries behind tabula, a converter from tabular
// source data to chart-ready series.
//
// # Overview
//
// The packages are layered leaf-first:
//
//  1. [table], [dsv], [jsonpath], [pivot] - record model and source parsers
//  2. [series] - the target builder and its per-series store
//  3. [fetch], [cache], [httputil] - retrieval of remote sources
//  4. [pipeline] - orchestration (load, then build)
//  5. [config], [archive], [io], [observability] - configuration,
//     persistence, file formats and metrics
//
// # Architecture
//
//	URL / file / inline text / rows / columns / JSON
//	         ↓
//	    [fetch] + [dsv] / [pivot] (records)
//	         ↓
//	    [series] (targets, x-values, categories)
//	         ↓
//	    JSON / CSV / MongoDB archive
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Text:   "day,sales\nMon,30\nTue,200\n",
//	    Series: series.Options{X: "day", XType: series.XTypeCategory},
//	})
//
// [table]: github.com/matzehuels/tabula/pkg/table
// [dsv]: github.com/matzehuels/tabula/pkg/dsv
// [jsonpath]: github.com/matzehuels/tabula/pkg/jsonpath
// [pivot]: github.com/matzehuels/tabula/pkg/pivot
// [series]: github.com/matzehuels/tabula/pkg/series
// [fetch]: github.com/matzehuels/tabula/pkg/fetch
// [cache]: github.com/matzehuels/tabula/pkg/cache
// [httputil]: github.com/matzehuels/tabula/pkg/httputil
// [pipeline]: github.com/matzehuels/tabula/pkg/pipeline
// [config]: github.com/matzehuels/tabula/pkg/config
// [archive]: github.com/matzehuels/tabula/pkg/archive
// [io]: github.com/matzehuels/tabula/pkg/io
// [observability]: github.com/matzehuels/tabula/pkg/observability
package pkg
