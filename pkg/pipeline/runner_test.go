package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/observability"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/series"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	r := NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { r.Close() })
	return r
}

func targetIDs(targets []series.Target) []string {
	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	return ids
}

func TestExecuteRows(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Rows: [][]any{
			{"x", "data1", "data2"},
			{"Mon", 30, -5},
			{"Tue", 200, 10},
			{"Mon", 100, 20},
		},
		Series: series.Options{X: "x", XType: series.XTypeCategory},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if diff := cmp.Diff([]string{"data1", "data2"}, targetIDs(res.Targets)); diff != "" {
		t.Errorf("target ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Mon", "Tue"}, res.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if !res.HasNegative || !res.HasPositive {
		t.Errorf("sign flags = %v/%v, want both", res.HasNegative, res.HasPositive)
	}
	if res.Stats.Records != 3 || res.Stats.Series != 2 || res.Stats.Points != 6 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.BuildID == uuid.Nil {
		t.Error("BuildID should be set")
	}
}

func TestExecuteMalformedRows(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), Options{
		Rows: [][]any{{"a", "b"}, {1}},
	})
	var merr *errors.MalformedDataError
	if !stderrors.As(err, &merr) {
		t.Fatalf("error = %v, want *errors.MalformedDataError", err)
	}
	if merr.Row != 1 || merr.Column != 1 {
		t.Errorf("position = (%d, %d), want (1, 1)", merr.Row, merr.Column)
	}
}

func TestExecuteColumnsAndText(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	fromCols, err := r.Execute(ctx, Options{Columns: [][]any{{"a", 1, 2}, {"b", 3, 4}}})
	if err != nil {
		t.Fatalf("Execute(columns) error: %v", err)
	}
	fromText, err := newTestRunner(t, nil).Execute(ctx, Options{Text: "a,b\n1,3\n2,4\n"})
	if err != nil {
		t.Fatalf("Execute(text) error: %v", err)
	}
	if diff := cmp.Diff(fromCols.Targets, fromText.Targets); diff != "" {
		t.Errorf("columns and text disagree (-cols +text):\n%s", diff)
	}
}

func TestExecuteHeaderOnlyText(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Text: "a,b"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.Records != 1 {
		t.Errorf("Records = %d, want 1", res.Stats.Records)
	}
	if diff := cmp.Diff([]string{"a", "b"}, targetIDs(res.Targets)); diff != "" {
		t.Errorf("target ids mismatch (-want +got):\n%s", diff)
	}
	for _, tgt := range res.Targets {
		if tgt.Len() != 1 || !tgt.Values[0].Value.IsNull() {
			t.Errorf("%s: want one null point, got %+v", tgt.ID, tgt.Values)
		}
	}
}

func TestExecutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.tsv")
	if err := os.WriteFile(path, []byte("month\tsales\n2024-01-01\t5\n2024-02-01\t7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Path:   path,
		Series: series.Options{X: "month", XType: series.XTypeTimeseries},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Targets) != 1 || res.Targets[0].ID != "sales" {
		t.Fatalf("targets = %v", targetIDs(res.Targets))
	}
	want := series.TimeX(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if diff := cmp.Diff(want, res.Targets[0].Values[1].X); diff != "" {
		t.Errorf("x mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteMissingPath(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), Options{Path: filepath.Join(t.TempDir(), "nope.csv")})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestExecuteJSONKeys(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		JSON: []byte(`[
			{"name": "www.site1.com", "upload": 200, "stats": {"download": 200}},
			{"name": "www.site2.com", "upload": 100}
		]`),
		Keys:   &pivot.Keys{X: "name", Value: []string{"upload", "stats.download"}},
		Series: series.Options{XType: series.XTypeCategory},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if diff := cmp.Diff([]string{"upload", "stats.download"}, targetIDs(res.Targets)); diff != "" {
		t.Errorf("target ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"www.site1.com", "www.site2.com"}, res.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	// Unresolved paths are null gaps, not dropped entries.
	if got := res.Targets[1].Len(); got != 2 {
		t.Errorf("stats.download has %d points, want 2", got)
	}
}

func TestExecuteUndefinedXLeavesStore(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Text: "a\n1\n"}); err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	before := r.Store.AllXs()

	_, err := r.Execute(ctx, Options{
		Text:   "b\n2\n",
		Series: series.Options{Xs: map[string]string{"b": "xb"}},
	})
	if !errors.Is(err, errors.ErrCodeUndefinedXAxis) {
		t.Fatalf("error = %v, want UNDEFINED_X_AXIS", err)
	}
	if diff := cmp.Diff(before, r.Store.AllXs()); diff != "" {
		t.Errorf("store changed by failed build (-before +after):\n%s", diff)
	}
}

func TestExecuteAppend(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()
	seriesOpts := series.Options{X: "x"}

	if _, err := r.Execute(ctx, Options{Text: "x,a\n1,10\n2,20\n", Series: seriesOpts}); err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	res, err := r.Execute(ctx, Options{Text: "x,a\n3,30\n", Series: seriesOpts, Append: true})
	if err != nil {
		t.Fatalf("append Execute() error: %v", err)
	}
	want := []series.X{series.NumberX(1), series.NumberX(2), series.NumberX(3)}
	if diff := cmp.Diff(want, res.Xs["a"]); diff != "" {
		t.Errorf("xs mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteURLAndCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-Token") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("x,a\n1,5\n2,6\n"))
	}))
	defer server.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	ctx := context.Background()
	opts := Options{URL: server.URL, Headers: map[string]string{"X-Token": "secret"}, Series: series.Options{X: "x"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.SourceHit || first.CacheInfo.DatasetHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.SourceHit || !second.CacheInfo.DatasetHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
	if diff := cmp.Diff(first.Targets, second.Targets); diff != "" {
		t.Errorf("cached run differs (-first +second):\n%s", diff)
	}
}

func TestExecuteURLRetrievalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), Options{URL: server.URL + "/missing.csv"})
	var rerr *errors.RetrievalError
	if !stderrors.As(err, &rerr) || rerr.Status != http.StatusNotFound {
		t.Errorf("error = %v, want RetrievalError 404", err)
	}
}

type recordingArchive struct {
	buildID uuid.UUID
	targets []series.Target
}

func (a *recordingArchive) SaveTargets(_ context.Context, id uuid.UUID, targets []series.Target) error {
	a.buildID, a.targets = id, targets
	return nil
}

func TestExecuteArchive(t *testing.T) {
	r := newTestRunner(t, nil)
	arch := &recordingArchive{}
	r.Archive = arch

	res, err := r.Execute(context.Background(), Options{Text: "a\n1\n", Archive: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if arch.buildID != res.BuildID || len(arch.targets) != 1 {
		t.Errorf("archived build %s with %d targets", arch.buildID, len(arch.targets))
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	builds, parses int
}

func (h *countingHooks) OnParseComplete(context.Context, string, int, time.Duration, error) {
	h.parses++
}

func (h *countingHooks) OnBuildComplete(context.Context, int, int, time.Duration, error) {
	h.builds++
}

func TestExecuteEmitsHooks(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)

	r := newTestRunner(t, nil)
	if _, err := r.Execute(context.Background(), Options{Text: "a\n1\n"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if hooks.parses != 1 || hooks.builds != 1 {
		t.Errorf("parses=%d builds=%d, want 1 each", hooks.parses, hooks.builds)
	}
}

func TestUnload(t *testing.T) {
	r := newTestRunner(t, nil)
	if _, err := r.Execute(context.Background(), Options{Text: "a,b\n1,2\n"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	r.Unload("a")
	if _, ok := r.Store.Target("a"); ok {
		t.Error("a should be unloaded")
	}
	if _, ok := r.Store.Target("b"); !ok {
		t.Error("b should remain")
	}
}
