// Package fetch retrieves remote source data and decodes it into records.
//
// A [Fetcher] performs HTTP GET requests with caller-supplied headers,
// retries transient failures and keeps fetched bodies in a [cache.Cache].
// [Decode] turns a body into a [table.Dataset] according to its mime type.
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/tabula/pkg/cache"
	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/httputil"
	"github.com/matzehuels/tabula/pkg/observability"
)

// ErrNetwork is returned for transport failures (timeouts, refused
// connections).
var ErrNetwork = stderrors.New("network error")

// Options configures a [Fetcher].
type Options struct {
	// Headers are sent with every request. Per-call headers override them.
	Headers map[string]string
	// Timeout bounds a single request.
	Timeout time.Duration
	// Attempts bounds retries of transient failures.
	Attempts int
	// RetryDelay is the initial backoff delay.
	RetryDelay time.Duration
	// TTL is how long fetched bodies stay cached.
	TTL time.Duration
}

// Fetcher downloads source bodies.
type Fetcher struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	headers map[string]string

	attempts int
	delay    time.Duration
	ttl      time.Duration
}

// New returns a Fetcher. A nil cache disables caching; a nil keyer selects
// the default.
func New(c cache.Cache, keyer cache.Keyer, opts Options) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.TTLSource
	}
	return &Fetcher{
		http:     httputil.NewClient(opts.Timeout),
		cache:    c,
		keyer:    keyer,
		headers:  opts.Headers,
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		ttl:      opts.TTL,
	}
}

// Result is a fetched body and where it came from.
type Result struct {
	Body     []byte
	CacheHit bool
}

// Fetch downloads url. Unless refresh is set, a cached body is returned
// without a request.
//
// A response that is not 2xx, or that has an empty body, fails with a
// *errors.RetrievalError.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string, refresh bool) (Result, error) {
	if err := errors.ValidateURL(url); err != nil {
		return Result{}, err
	}
	merged := f.mergeHeaders(headers)
	key := f.keyer.SourceKey(url, merged)

	if !refresh {
		if data, ok, _ := f.cache.Get(ctx, key); ok {
			return Result{Body: data, CacheHit: true}, nil
		}
	}

	var body []byte
	err := httputil.Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		body, err = f.do(ctx, url, merged)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	_ = f.cache.Set(ctx, key, body, f.ttl)
	return Result{Body: body}, nil
}

func (f *Fetcher) mergeHeaders(headers map[string]string) map[string]string {
	if len(f.headers) == 0 && len(headers) == 0 {
		return nil
	}
	merged := make(map[string]string, len(f.headers)+len(headers))
	for k, v := range f.headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	return merged
}

func (f *Fetcher) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := retrievalError(url, resp)
		if httputil.RetryableStatus(resp.StatusCode) {
			return nil, &httputil.RetryableError{Err: rerr}
		}
		return nil, rerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	if len(body) == 0 {
		return nil, retrievalError(url, resp)
	}
	return body, nil
}

func retrievalError(url string, resp *http.Response) *errors.RetrievalError {
	return &errors.RetrievalError{
		URL:        url,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
}
