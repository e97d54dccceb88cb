package fetch

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/pivot"
	"github.com/matzehuels/tabula/pkg/table"
)

func newTestFetcher(t *testing.T, c cache.Cache) *Fetcher {
	t.Helper()
	return New(c, nil, Options{Attempts: 3, RetryDelay: time.Millisecond})
}

func TestFetchSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer t" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Default"); got != "override" {
			t.Errorf("X-Default = %q, want per-call override", got)
		}
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer server.Close()

	f := New(nil, nil, Options{Headers: map[string]string{"X-Default": "base"}})
	res, err := f.Fetch(context.Background(), server.URL, map[string]string{
		"Authorization": "Bearer t",
		"X-Default":     "override",
	}, false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(res.Body) != "a,b\n1,2\n" {
		t.Errorf("Body = %q", res.Body)
	}
}

func TestFetchRetrievalFailure(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCalls  int32
	}{
		{"not found", http.StatusNotFound, "missing", 404, 1},
		{"empty body", http.StatusOK, "", 200, 1},
		{"server error retried", http.StatusBadGateway, "", 502, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL, nil, false)
			var rerr *errors.RetrievalError
			if !stderrors.As(err, &rerr) {
				t.Fatalf("error = %v, want *errors.RetrievalError", err)
			}
			if rerr.Status != tt.wantStatus || rerr.URL != server.URL {
				t.Errorf("RetrievalError = %+v", rerr)
			}
			if !errors.Is(err, errors.ErrCodeRetrievalFailure) {
				t.Errorf("code = %q", errors.GetCode(err))
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetchRecoversAfterTransientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("x\n1\n"))
	}))
	defer server.Close()

	res, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL, nil, false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(res.Body) != "x\n1\n" || calls.Load() != 2 {
		t.Errorf("Body = %q after %d calls", res.Body, calls.Load())
	}
}

func TestFetchCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("a\n1\n"))
	}))
	defer server.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := newTestFetcher(t, c)
	ctx := context.Background()

	first, err := f.Fetch(ctx, server.URL, nil, false)
	if err != nil || first.CacheHit {
		t.Fatalf("first Fetch() = %+v, %v", first, err)
	}
	second, err := f.Fetch(ctx, server.URL, nil, false)
	if err != nil || !second.CacheHit {
		t.Fatalf("second Fetch() = %+v, %v; want cache hit", second, err)
	}
	if _, err := f.Fetch(ctx, server.URL, nil, true); err != nil {
		t.Fatalf("refresh Fetch() error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newTestFetcher(t, nil).Fetch(context.Background(), "ftp://example.com/a.csv", nil, false)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		mime string
		keys *pivot.Keys
		want table.Dataset
	}{
		{
			name: "csv default",
			body: "a,b\n1,2\n",
			mime: "",
			want: table.Dataset{Fields: []string{"a", "b"}, Records: []table.Record{{"a": "1", "b": "2"}}},
		},
		{
			name: "tsv",
			body: "a\tb\n1\t2\n",
			mime: MimeTSV,
			want: table.Dataset{Fields: []string{"a", "b"}, Records: []table.Record{{"a": "1", "b": "2"}}},
		},
		{
			name: "json columns",
			body: `{"b":[1],"a":[2]}`,
			mime: MimeJSON,
			want: table.Dataset{Fields: []string{"b", "a"}, Records: []table.Record{{"b": 1.0, "a": 2.0}}},
		},
		{
			name: "json keys",
			body: `[{"d":{"v":3},"t":"x"}]`,
			mime: MimeJSON,
			keys: &pivot.Keys{X: "t", Value: []string{"d.v"}},
			want: table.Dataset{Fields: []string{"d.v", "t"}, Records: []table.Record{{"d.v": 3.0, "t": "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.body), tt.mime, tt.keys)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeInvalidMime(t *testing.T) {
	_, err := Decode([]byte("a"), "xml", nil)
	if !errors.Is(err, errors.ErrCodeInvalidMimeType) {
		t.Errorf("error = %v, want INVALID_MIME_TYPE", err)
	}
}
