package dload

import (
	"strings"

	"github.com/wswaq/img2dataset/cmn/nlog"
)

// robotsDisallowed implements C1's X-Robots-Tag filter.
//
// Each header value has the form "<ua>: <directive>,<directive>,..." or
// simply "<directive>,...". Malformed headers are logged and skipped —
// never escalated to abort the fetch (§7).
func robotsDisallowed(headerValues []string, uaToken string, disallowed map[string]struct{}) bool {
	uaToken = strings.ToLower(uaToken)
	for _, v := range headerValues {
		directives, headerUA, ok := parseRobotsTag(v)
		if !ok {
			nlog.Warningf("failed to parse X-Robots-Tag: %q", v)
			continue
		}
		if headerUA != "" && headerUA != uaToken {
			continue // applies to a different crawler
		}
		for _, d := range directives {
			if _, bad := disallowed[d]; bad {
				return true
			}
		}
	}
	return false
}

// parseRobotsTag splits on the first colon: one part -> directive list with
// no ua-token; two parts -> left is the ua-token. Both sides are lowercased
// and whitespace-trimmed.
func parseRobotsTag(v string) (directives []string, uaToken string, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, "", false
	}

	parts := strings.SplitN(v, ":", 2)
	var directiveList string
	if len(parts) == 2 {
		uaToken = strings.ToLower(strings.TrimSpace(parts[0]))
		directiveList = parts[1]
	} else {
		directiveList = parts[0]
	}

	for _, d := range strings.Split(directiveList, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		directives = append(directives, d)
	}
	if len(directives) == 0 {
		return nil, "", false
	}
	return directives, uaToken, true
}

// ErrRobotsDisallowed is the canonical error message surfaced in a row's
// error_message when a response is rejected by robots-tag filtering.
const ErrRobotsDisallowed = "Use of image disallowed by X-Robots-Tag directive"
