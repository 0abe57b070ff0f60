package balegram

import (
	"regexp"
	"strconv"
	"time"
)

func getStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func getDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

var retryAfterRe = regexp.MustCompile(`(?i)retry after (\d+)`)

// parseRetryAfter reads "Too Many Requests: retry after N" style descriptions.
func parseRetryAfter(desc string) int {
	m := retryAfterRe.FindStringSubmatch(desc)
	if len(m) != 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
