// Package httputil holds the HTTP plumbing shared by the data fetcher.
//
// [Retry] re-runs an operation with exponential backoff as long as it fails
// with a [RetryableError]. Wrap transient failures (connection errors, 5xx
// responses, 429) in RetryableError and return everything else unwrapped:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// [NewClient] returns an *http.Client with a bounded timeout.
package httputil
