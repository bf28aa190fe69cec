package client

import (
	"strconv"
	"strings"
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
)

// keepAliveTimeout implements the parsing rule of spec.md §4.2 and §8.9:
// search the Keep-Alive header for the substring "timeout=", take the
// subsequent decimal digits, stopping at the first non-digit; if the
// substring is absent, the digit run is empty, or the parsed value is
// <= 0, fall back to def.
func keepAliveTimeout(resp *domain.Response, def time.Duration) time.Duration {
	if resp == nil || resp.Headers == nil {
		return def
	}
	v := resp.Headers.Get("Keep-Alive")
	if v == "" {
		return def
	}
	idx := strings.Index(v, "timeout=")
	if idx == -1 {
		return def
	}
	rest := v[idx+len("timeout="):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return def
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
