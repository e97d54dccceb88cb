// Package series builds target series from normalized records.
//
// A [Builder] turns a [table.Dataset] into one [Target] per value field.
// Each build goes through the same steps for every series:
//
//  1. Discovery: fields of the first record are split into x fields and
//     series ids using the configured x keys.
//  2. X resolution: positions for indexed data; otherwise the series' own x
//     column, the x-values of another series (shared global x key) or those
//     of a previously loaded series with the same x key.
//  3. Values: cells are coerced into tagged [Value]s; with categorized x
//     the first series registers raw x labels in the category registry.
//  4. Filtering: entries with an absent cell, or beyond the known x-values,
//     are dropped.
//  5. Sort and index: optional stable sort by x (null last), then
//     re-numbering.
//
// The shared state lives in a [Store]. A build stages every change and
// commits it only once all series resolved their x, so a failed build
// leaves the store untouched.
//
//	store := series.NewStore()
//	b := series.NewBuilder(store, series.Options{X: "x", XSort: true})
//	targets, err := b.Build(ds, false)
package series
