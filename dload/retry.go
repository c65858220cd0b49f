package dload

import (
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/cmn/nlog"
)

// FetchWithRetry is C2: dispatches once on the row's URL shape, then is
// pure I/O — it never touches the transformer, writer, or counters.
//
// Single URL: up to retries+1 attempts, returns on first success or the
// last error on exhaustion.
//
// URL list: each non-null element gets its own up-to-retries+1 attempts,
// independently; null elements are elided. The envelope itself always
// "succeeds" — per-element errors live in the returned list, in the input
// order of non-null URLs.
func FetchWithRetry(row *Row, timeout time.Duration, retries int, uaToken string, disallowed map[string]struct{}) RawRowResult {
	if row.URL.IsList {
		return RawRowResult{Row: row, List: fetchListWithRetry(row.URL.List, timeout, retries, uaToken, disallowed)}
	}
	return RawRowResult{Row: row, Single: fetchOneWithRetry(row.URL.Single, timeout, retries, uaToken, disallowed)}
}

func fetchOneWithRetry(url string, timeout time.Duration, retries int, uaToken string, disallowed map[string]struct{}) FetchOutcome {
	var last FetchOutcome
	for attempt := 0; attempt <= retries; attempt++ {
		last = Fetch(url, timeout, uaToken, disallowed)
		if last.ok() {
			return last
		}
	}
	// Transient-looking failures (timeouts, DNS hiccups, connection resets)
	// are expected under load and logged at a lower severity than an
	// exhaustion that looks permanent (4xx-shaped, malformed URL, ...).
	if cos.IsUnreachable(last.Err, 0) || cos.IsRetriableConnErr(last.Err) || errors.Is(last.Err, fasthttp.ErrTimeout) {
		nlog.Warningf("fetch %s: exhausted %d retries, transient: %v", url, retries, last.Err)
	} else {
		nlog.Errorf("fetch %s: exhausted %d retries: %v", url, retries, last.Err)
	}
	return last
}

func fetchListWithRetry(urls []*string, timeout time.Duration, retries int, uaToken string, disallowed map[string]struct{}) []FetchOutcome {
	out := make([]FetchOutcome, 0, len(urls))
	for _, u := range urls {
		if u == nil {
			continue
		}
		out = append(out, fetchOneWithRetry(*u, timeout, retries, uaToken, disallowed))
	}
	return out
}
