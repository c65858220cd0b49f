package dload

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"github.com/wswaq/img2dataset/cmn/cos"
)

const baseUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:72.0) Gecko/20100101 Firefox/72.0"

const projectURL = "https://github.com/wswaq/img2dataset"

// BuildUserAgent composes the User-Agent header (C1): the fixed browser-like
// base string, plus a "(compatible; <token>; +<project_url>)" suffix when a
// ua token is configured.
func BuildUserAgent(uaToken string) string {
	if uaToken == "" {
		return baseUserAgent
	}
	return fmt.Sprintf("%s (compatible; %s; +%s)", baseUserAgent, uaToken, projectURL)
}

var fastClient = &fasthttp.Client{
	MaxConnsPerHost:     4096,
	MaxIdleConnDuration: 30 * time.Second,
	ReadBufferSize:      64 * 1024,
}

// Fetch is C1: one HTTP GET with a combined connect+read timeout, the
// configured User-Agent, and robots-tag filtering of the response before
// its body is accepted. Any network/timeout/HTTP error yields a FetchOutcome
// with only Err populated.
func Fetch(url string, timeout time.Duration, uaToken string, disallowed map[string]struct{}) FetchOutcome {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderUserAgent, BuildUserAgent(uaToken))

	fetchStart := time.Now()
	err := fastClient.DoTimeout(req, resp, timeout)
	ObserveFetchLatency(time.Since(fetchStart).Nanoseconds())
	if err != nil {
		return FetchOutcome{Err: classifyFetchErr(err)}
	}
	if sc := resp.StatusCode(); sc >= fasthttp.StatusBadRequest {
		return FetchOutcome{Err: fmt.Errorf("HTTP Error %d: %s", sc, fasthttp.StatusMessage(sc))}
	}

	if len(disallowed) > 0 {
		var headerValues []string
		resp.Header.VisitAll(func(key, value []byte) {
			if string(key) == "X-Robots-Tag" {
				headerValues = append(headerValues, string(value))
			}
		})
		if robotsDisallowed(headerValues, uaToken, disallowed) {
			return FetchOutcome{Err: errors.New(ErrRobotsDisallowed)}
		}
	}

	body := resp.Body()
	owned := make([]byte, len(body))
	copy(owned, body) // resp/body is reused by the pool on release, must not alias it
	return FetchOutcome{Body: owned}
}

func classifyFetchErr(err error) error {
	switch {
	case errors.Is(err, fasthttp.ErrTimeout):
		return errors.Wrap(err, "timeout")
	case cos.IsRetriableConnErr(err):
		return errors.Wrap(err, "connection error")
	default:
		return err
	}
}
